package service

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/slicehouse/api/internal/database"
	"github.com/slicehouse/api/internal/gateway"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commits   atomic.Int32
	rollbacks atomic.Int32
	commitErr error
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.commits.Add(1)
	return nil
}
func (m *mockTx) Rollback(ctx context.Context) error {
	m.rollbacks.Add(1)
	return nil
}
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockDB implements DB. Queries go through the store factory, so only Begin
// is ever called on it directly.
type mockDB struct {
	tx     *mockTx
	begins atomic.Int32
	err    error
}

func (m *mockDB) Begin(ctx context.Context) (pgx.Tx, error) {
	m.begins.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.tx, nil
}
func (m *mockDB) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockDB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	panic("not implemented")
}

type catalogEntry struct {
	name        string
	available   bool
	prices      map[database.PizzaSize]string
	ingredients []uuid.UUID
}

// mockOrderStore is an in-memory OrderStore. The xxxFn fields, when set,
// replace the default behaviour for that method.
type mockOrderStore struct {
	mu         sync.Mutex
	seq        int64
	historySeq int64
	catalog    map[uuid.UUID]catalogEntry
	inventory  map[uuid.UUID]*database.InventoryItem
	orders     map[uuid.UUID]database.Order
	items      map[uuid.UUID][]database.OrderItem
	history    map[uuid.UUID][]database.OrderStatusHistory
	userOrders map[uuid.UUID]int

	lockedReads atomic.Int32

	createOrderFn       func(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	updateOrderStatusFn func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
}

func newMockStore() *mockOrderStore {
	return &mockOrderStore{
		catalog:    map[uuid.UUID]catalogEntry{},
		inventory:  map[uuid.UUID]*database.InventoryItem{},
		orders:     map[uuid.UUID]database.Order{},
		items:      map[uuid.UUID][]database.OrderItem{},
		history:    map[uuid.UUID][]database.OrderStatusHistory{},
		userOrders: map[uuid.UUID]int{},
	}
}

func (m *mockOrderStore) NextOrderNumber(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq, nil
}

func (m *mockOrderStore) GetCatalogItemPrice(ctx context.Context, arg database.GetCatalogItemPriceParams) (database.GetCatalogItemPriceRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.catalog[arg.ID]
	if !ok {
		return database.GetCatalogItemPriceRow{}, pgx.ErrNoRows
	}
	row := database.GetCatalogItemPriceRow{ID: arg.ID, Name: e.name, IsAvailable: e.available}
	if p, ok := e.prices[arg.Size]; ok {
		row.Price = makeNumeric(p)
	}
	return row, nil
}

func (m *mockOrderStore) ListCatalogItemIngredients(ctx context.Context, catalogItemID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID{}, m.catalog[catalogItemID].ingredients...), nil
}

func (m *mockOrderStore) GetInventoryItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]database.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[uuid.UUID]bool{}
	out := []database.InventoryItem{}
	for _, id := range ids {
		if it, ok := m.inventory[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, *it)
		}
	}
	return out, nil
}

func (m *mockOrderStore) DecrementInventoryItem(ctx context.Context, arg database.DecrementInventoryItemParams) (database.DecrementInventoryItemRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.inventory[arg.ID]
	if !ok {
		return database.DecrementInventoryItemRow{}, pgx.ErrNoRows
	}
	prev := it.Quantity
	it.Quantity -= arg.Amount
	if it.Quantity < 0 {
		it.Quantity = 0
	}
	return database.DecrementInventoryItemRow{
		ID: it.ID, Name: it.Name, ItemType: it.ItemType, Unit: it.Unit,
		Threshold: it.Threshold, PreviousQuantity: prev, Quantity: it.Quantity,
	}, nil
}

func (m *mockOrderStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	if m.createOrderFn != nil {
		if o, err := m.createOrderFn(ctx, arg); err != nil || o.ID != uuid.Nil {
			return o, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.OrderNumber == arg.OrderNumber {
			return database.Order{}, &pgconn.PgError{Code: "23505", ConstraintName: orderNumberConstraint}
		}
	}
	o := database.Order{
		ID:                    uuid.New(),
		OrderNumber:           arg.OrderNumber,
		UserID:                arg.UserID,
		TotalAmount:           arg.TotalAmount,
		Status:                arg.Status,
		PaymentMethod:         arg.PaymentMethod,
		PaymentStatus:         arg.PaymentStatus,
		GatewayIntentID:       arg.GatewayIntentID,
		DeliveryAddress:       arg.DeliveryAddress,
		Notes:                 arg.Notes,
		EstimatedDeliveryTime: arg.EstimatedDeliveryTime,
		CreatedAt:             time.Now(),
		UpdatedAt:             time.Now(),
	}
	m.orders[o.ID] = o
	return o, nil
}

func (m *mockOrderStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it := database.OrderItem{
		ID:            uuid.New(),
		OrderID:       arg.OrderID,
		Position:      arg.Position,
		CatalogItemID: arg.CatalogItemID,
		Size:          arg.Size,
		Composition:   arg.Composition,
		Name:          arg.Name,
		Quantity:      arg.Quantity,
		UnitPrice:     arg.UnitPrice,
	}
	m.items[arg.OrderID] = append(m.items[arg.OrderID], it)
	return it, nil
}

func (m *mockOrderStore) AppendOrderStatusHistory(ctx context.Context, arg database.AppendOrderStatusHistoryParams) (database.OrderStatusHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.historySeq++
	h := database.OrderStatusHistory{ID: m.historySeq, OrderID: arg.OrderID, Status: arg.Status, ActorID: arg.ActorID, CreatedAt: time.Now()}
	m.history[arg.OrderID] = append(m.history[arg.OrderID], h)
	return h, nil
}

func (m *mockOrderStore) RecordUserOrder(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userOrders[id]++
	return nil
}

func (m *mockOrderStore) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *mockOrderStore) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error) {
	m.lockedReads.Add(1)
	return m.GetOrder(ctx, id)
}

func (m *mockOrderStore) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]database.OrderItem{}, m.items[orderID]...), nil
}

func (m *mockOrderStore) ListOrderStatusHistory(ctx context.Context, orderID uuid.UUID) ([]database.OrderStatusHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]database.OrderStatusHistory{}, m.history[orderID]...), nil
}

func (m *mockOrderStore) filterOrders(userID *uuid.UUID, status database.NullOrderStatus) []database.Order {
	out := []database.Order{}
	for _, o := range m.orders {
		if userID != nil && o.UserID != *userID {
			continue
		}
		if status.Valid && o.Status != status.OrderStatus {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber > out[j].OrderNumber })
	return out
}

func page(orders []database.Order, limit, offset int32) []database.Order {
	if int(offset) >= len(orders) {
		return []database.Order{}
	}
	end := int(offset + limit)
	if end > len(orders) {
		end = len(orders)
	}
	return orders[offset:end]
}

func (m *mockOrderStore) ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return page(m.filterOrders(nil, arg.Status), arg.LimitCount, arg.OffsetCount), nil
}

func (m *mockOrderStore) CountOrders(ctx context.Context, status database.NullOrderStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.filterOrders(nil, status))), nil
}

func (m *mockOrderStore) ListOrdersByUser(ctx context.Context, arg database.ListOrdersByUserParams) ([]database.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return page(m.filterOrders(&arg.UserID, arg.Status), arg.LimitCount, arg.OffsetCount), nil
}

func (m *mockOrderStore) CountOrdersByUser(ctx context.Context, arg database.CountOrdersByUserParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.filterOrders(&arg.UserID, arg.Status))), nil
}

func (m *mockOrderStore) MarkOrderPaid(ctx context.Context, arg database.MarkOrderPaidParams) (database.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[arg.ID]
	if !ok || o.PaymentStatus != database.PaymentStatusPending || o.GatewayPaymentID.Valid {
		return database.Order{}, pgx.ErrNoRows
	}
	o.PaymentStatus = database.PaymentStatusCompleted
	if o.Status == database.OrderStatusPending {
		o.Status = database.OrderStatusConfirmed
	}
	o.GatewayPaymentID = arg.GatewayPaymentID
	m.orders[o.ID] = o
	return o, nil
}

func (m *mockOrderStore) MarkOrderReconciled(ctx context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.ReconciledAt.Valid {
		return 0, nil
	}
	o.ReconciledAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	m.orders[id] = o
	return 1, nil
}

func (m *mockOrderStore) UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	if m.updateOrderStatusFn != nil {
		return m.updateOrderStatusFn(ctx, arg)
	}
	return m.updateOrderStatus(arg)
}

func (m *mockOrderStore) updateOrderStatus(arg database.UpdateOrderStatusParams) (database.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[arg.ID]
	if !ok || o.Status != arg.CurrentStatus || o.PaymentStatus != arg.CurrentPaymentStatus {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Status = arg.Status
	o.PaymentStatus = arg.PaymentStatus
	o.ActualDeliveryTime = arg.ActualDeliveryTime
	m.orders[o.ID] = o
	return o, nil
}

// --- Fixtures ---

func (m *mockOrderStore) addInventory(name string, typ database.InventoryType, qty, threshold int32, cost string) uuid.UUID {
	id := uuid.New()
	m.inventory[id] = &database.InventoryItem{
		ID: id, Name: name, ItemType: typ, Quantity: qty, Unit: "pieces",
		Threshold: threshold, Cost: makeNumeric(cost),
	}
	return id
}

func (m *mockOrderStore) addCatalog(name string, prices map[database.PizzaSize]string, ingredients ...uuid.UUID) uuid.UUID {
	id := uuid.New()
	m.catalog[id] = catalogEntry{name: name, available: true, prices: prices, ingredients: ingredients}
	return id
}

func (m *mockOrderStore) quantity(id uuid.UUID) int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inventory[id].Quantity
}

func (m *mockOrderStore) order(id uuid.UUID) database.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id]
}

// mockGateway records intent requests and hands out ids derived from the receipt.
type mockGateway struct {
	mu    sync.Mutex
	calls []gateway.IntentRequest
	err   error
}

func (g *mockGateway) CreateIntent(ctx context.Context, req gateway.IntentRequest) (gateway.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	if g.err != nil {
		return gateway.Intent{}, g.err
	}
	return gateway.Intent{
		ID:       "order_" + req.Receipt,
		Amount:   gateway.ToMinorUnits(req.Amount),
		Currency: req.Currency,
		KeyID:    "rzp_test_key",
	}, nil
}

type mockNotifier struct {
	mu      sync.Mutex
	signals []LowStockSignal
	ctxErrs []error
	err     error
}

func (n *mockNotifier) NotifyLowStock(ctx context.Context, signals []LowStockSignal) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.signals = append(n.signals, signals...)
	n.ctxErrs = append(n.ctxErrs, ctx.Err())
	return n.err
}

type mockRecorder struct {
	mu       sync.Mutex
	created  map[database.PaymentMethod]int
	outcomes map[string]int
	lowStock int
}

func (r *mockRecorder) OrderCreated(method database.PaymentMethod) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.created == nil {
		r.created = map[database.PaymentMethod]int{}
	}
	r.created[method]++
}

func (r *mockRecorder) PaymentVerification(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = map[string]int{}
	}
	r.outcomes[outcome]++
}

func (r *mockRecorder) LowStock(count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lowStock += count
}

// --- Test helpers ---

const testPaymentSecret = "s3cr3t"

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	return numericToDecimal(n).Equal(decimal.RequireFromString(expected))
}

type testEnv struct {
	svc      *OrderService
	store    *mockOrderStore
	db       *mockDB
	gw       *mockGateway
	notifier *mockNotifier
	recorder *mockRecorder
}

func newTestEnv() *testEnv {
	store := newMockStore()
	db := &mockDB{tx: &mockTx{}}
	gw := &mockGateway{}
	notifier := &mockNotifier{}
	recorder := &mockRecorder{}
	svc := NewOrderService(db, func(database.DBTX) OrderStore { return store }, gw, Config{
		Currency:      "INR",
		PaymentSecret: testPaymentSecret,
		Notifier:      notifier,
		Recorder:      recorder,
		Now:           func() time.Time { return testNow },
	})
	return &testEnv{svc: svc, store: store, db: db, gw: gw, notifier: notifier, recorder: recorder}
}

// margherita seeds a catalog item priced 299/399/499 with three ingredients.
func (e *testEnv) margherita() (itemID uuid.UUID, ingredients []uuid.UUID) {
	dough := e.store.addInventory("Thin Crust", database.InventoryTypeBase, 100, 10, "40.00")
	sauce := e.store.addInventory("Tomato", database.InventoryTypeSauce, 100, 10, "15.00")
	cheese := e.store.addInventory("Mozzarella", database.InventoryTypeCheese, 100, 10, "60.00")
	itemID = e.store.addCatalog("Margherita", map[database.PizzaSize]string{
		database.PizzaSizeSmall:  "299.00",
		database.PizzaSizeMedium: "399.00",
		database.PizzaSizeLarge:  "499.00",
	}, dough, sauce, cheese)
	return itemID, []uuid.UUID{dough, sauce, cheese}
}

func orderReq(userID uuid.UUID, method string, lines ...OrderLineRequest) CreateOrderRequest {
	return CreateOrderRequest{
		UserID:          userID,
		Items:           lines,
		PaymentMethod:   method,
		DeliveryAddress: "12 MG Road, Bengaluru",
	}
}

func catalogLine(id uuid.UUID, size string, qty int32) OrderLineRequest {
	return OrderLineRequest{CatalogItemID: id.String(), Size: size, Quantity: qty}
}
