//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/slicehouse/api/internal/config"
	"github.com/slicehouse/api/internal/database"
	"github.com/slicehouse/api/internal/gateway"
	"github.com/slicehouse/api/internal/notify"
	"github.com/slicehouse/api/internal/router"
	"github.com/slicehouse/api/internal/service"
	"github.com/slicehouse/api/internal/ws"
)

const (
	integrationSecret = "integration-test-secret"
	gatewayKeyID      = "rzp_test_integration"
	gatewayKeySecret  = "integration-gateway-secret"
)

type recordingNotifier struct {
	mu      sync.Mutex
	signals []service.LowStockSignal
}

func (n *recordingNotifier) NotifyLowStock(_ context.Context, signals []service.LowStockSignal) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.signals = append(n.signals, signals...)
	return nil
}

func (n *recordingNotifier) names() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.signals))
	for i, s := range n.signals {
		out[i] = s.Name
	}
	return out
}

// TestIntegrationFlow exercises the order and payment lifecycle against a
// real PostgreSQL database with every handler wired through the router.
func TestIntegrationFlow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()
	runMigrations(t, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()
	queries := database.New(pool)

	gw := newFakeGateway(t)
	defer gw.Close()

	hub := ws.NewHub()
	go hub.Run(ctx)

	recorder := &recordingNotifier{}
	client := gateway.NewClient(gateway.Options{
		BaseURL:   gw.URL,
		KeyID:     gatewayKeyID,
		KeySecret: gatewayKeySecret,
		Currency:  "INR",
		Timeout:   5 * time.Second,
	}, zap.NewNop())
	orders := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}, client, service.Config{
		Currency:      "INR",
		PaymentSecret: client.Secret(),
		Notifier:      notify.Multi{notify.NewHubNotifier(hub), recorder},
	})

	cfg := &config.Config{JWTSecret: integrationSecret, CORSOrigins: []string{"http://localhost:3000"}}
	server := httptest.NewServer(router.New(router.Deps{
		Config:  cfg,
		Queries: queries,
		Orders:  orders,
		Hub:     hub,
		DB:      pool,
	}))
	defer server.Close()

	// --- 1. Bootstrap admin and menu ---
	createAdminUser(t, ctx, queries, "admin@test.com", "password123")
	inv := map[string]uuid.UUID{
		"Dough":      createInventory(t, ctx, queries, "Dough", database.InventoryTypeBase, 12, 10, "2.00"),
		"Tomato":     createInventory(t, ctx, queries, "Tomato", database.InventoryTypeSauce, 100, 10, "1.00"),
		"Mozzarella": createInventory(t, ctx, queries, "Mozzarella", database.InventoryTypeCheese, 100, 10, "1.75"),
		"Basil":      createInventory(t, ctx, queries, "Basil", database.InventoryTypeVeggie, 100, 10, "0.50"),
		"Pepperoni":  createInventory(t, ctx, queries, "Pepperoni", database.InventoryTypeMeat, 100, 10, "1.50"),
	}
	margheritaID := createCatalogItem(t, ctx, queries, "Margherita", "12.99",
		inv["Dough"], inv["Tomato"], inv["Mozzarella"], inv["Basil"])

	// --- 2. Customer registers; admin logs in ---
	status, resp := apiCall(t, server, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "ada@test.com", "fullName": "Ada", "password": "long-enough",
	})
	requireStatus(t, "register", status, http.StatusCreated, resp)
	customerToken := resp["accessToken"].(string)
	adminToken := loginToken(t, server, "admin@test.com", "password123")

	// --- 3. Online order: priced server-side, intent attached, stock untouched ---
	status, resp = apiCall(t, server, http.MethodPost, "/orders", customerToken, map[string]interface{}{
		"items": []map[string]interface{}{
			{"catalogItemId": margheritaID.String(), "size": "medium", "quantity": 3, "unitPrice": "0.01"},
		},
		"paymentMethod":   "online",
		"deliveryAddress": "221B Baker Street",
	})
	requireStatus(t, "create online order", status, http.StatusCreated, resp)
	order := resp["order"].(map[string]interface{})
	intent := resp["paymentIntent"].(map[string]interface{})
	orderID := order["id"].(string)
	if order["totalAmount"] != "38.97" {
		t.Fatalf("totalAmount: got %v, want 38.97", order["totalAmount"])
	}
	if order["status"] != "pending" || order["paymentStatus"] != "pending" {
		t.Fatalf("new online order: got %v/%v", order["status"], order["paymentStatus"])
	}
	if intent["amount"] != float64(3897) || intent["keyId"] != gatewayKeyID {
		t.Fatalf("paymentIntent: got %v", intent)
	}
	intentID := intent["intentId"].(string)
	assertQuantity(t, ctx, queries, inv["Dough"], 12)

	// --- 4. Forged signature is rejected without side effects ---
	status, resp = apiCall(t, server, http.MethodPost, "/orders/verify-payment", customerToken, map[string]string{
		"orderId":          orderID,
		"gatewayIntentId":  intentID,
		"gatewayPaymentId": "pay_001",
		"clientSignature":  gateway.Sign("wrong-secret", intentID, "pay_001"),
	})
	requireStatus(t, "forged verify", status, http.StatusBadRequest, resp)
	assertQuantity(t, ctx, queries, inv["Dough"], 12)

	// --- 5. Valid verification confirms, reconciles and signals low stock ---
	verifyBody := map[string]string{
		"orderId":          orderID,
		"gatewayIntentId":  intentID,
		"gatewayPaymentId": "pay_001",
		"clientSignature":  gateway.Sign(gatewayKeySecret, intentID, "pay_001"),
	}
	status, resp = apiCall(t, server, http.MethodPost, "/orders/verify-payment", customerToken, verifyBody)
	requireStatus(t, "verify", status, http.StatusOK, resp)
	order = resp["order"].(map[string]interface{})
	if order["status"] != "confirmed" || order["paymentStatus"] != "completed" {
		t.Fatalf("verified order: got %v/%v", order["status"], order["paymentStatus"])
	}
	assertQuantity(t, ctx, queries, inv["Dough"], 9)
	assertQuantity(t, ctx, queries, inv["Basil"], 97)
	if names := recorder.names(); len(names) != 1 || names[0] != "Dough" {
		t.Fatalf("low stock signals: got %v, want [Dough]", names)
	}

	// --- 6. Replayed verification is a no-op ---
	status, resp = apiCall(t, server, http.MethodPost, "/orders/verify-payment", customerToken, verifyBody)
	requireStatus(t, "replayed verify", status, http.StatusOK, resp)
	assertQuantity(t, ctx, queries, inv["Dough"], 9)
	if n := len(recorder.names()); n != 1 {
		t.Fatalf("replay emitted signals: got %d", n)
	}

	// --- 7. COD custom pizza is confirmed and reconciled at once ---
	status, resp = apiCall(t, server, http.MethodPost, "/orders", customerToken, map[string]interface{}{
		"items": []map[string]interface{}{{
			"customComposition": map[string]interface{}{
				"base":   inv["Dough"].String(),
				"sauce":  inv["Tomato"].String(),
				"cheese": inv["Mozzarella"].String(),
				"meats":  []string{inv["Pepperoni"].String()},
			},
			"quantity": 2,
		}},
		"paymentMethod":   "cash-on-delivery",
		"deliveryAddress": "221B Baker Street",
	})
	requireStatus(t, "create COD order", status, http.StatusCreated, resp)
	codOrder := resp["order"].(map[string]interface{})
	codID := codOrder["id"].(string)
	// 2.00 + 1.00 + 1.75 + 1.50 = 6.25 per pizza
	if codOrder["totalAmount"] != "12.50" || codOrder["status"] != "confirmed" {
		t.Fatalf("COD order: got total=%v status=%v", codOrder["totalAmount"], codOrder["status"])
	}
	if _, ok := resp["paymentIntent"]; ok {
		t.Fatal("COD order must not carry a payment intent")
	}
	assertQuantity(t, ctx, queries, inv["Dough"], 7)
	assertQuantity(t, ctx, queries, inv["Pepperoni"], 98)

	// --- 8. Status changes are admin-only and move forward ---
	status, resp = apiCall(t, server, http.MethodPut, "/orders/"+codID+"/status", customerToken, map[string]string{"status": "preparing"})
	requireStatus(t, "customer status update", status, http.StatusForbidden, resp)

	for _, next := range []string{"preparing", "out-for-delivery", "delivered"} {
		status, resp = apiCall(t, server, http.MethodPut, "/orders/"+codID+"/status", adminToken, map[string]string{"status": next})
		requireStatus(t, "advance to "+next, status, http.StatusOK, resp)
	}
	delivered := resp["order"].(map[string]interface{})
	if delivered["paymentStatus"] != "completed" || delivered["actualDeliveryTime"] == nil {
		t.Fatalf("delivered COD order: got payment=%v delivered_at=%v", delivered["paymentStatus"], delivered["actualDeliveryTime"])
	}
	if h := delivered["statusHistory"].([]interface{}); len(h) != 4 {
		t.Fatalf("status history: got %d entries, want 4", len(h))
	}

	status, resp = apiCall(t, server, http.MethodPut, "/orders/"+codID+"/status", adminToken, map[string]string{"status": "preparing"})
	requireStatus(t, "backwards transition", status, http.StatusConflict, resp)
	status, resp = apiCall(t, server, http.MethodPost, "/orders/"+codID+"/cancel", customerToken, nil)
	requireStatus(t, "cancel delivered", status, http.StatusConflict, resp)

	// --- 9. Reads are scoped to the caller ---
	status, resp = apiCall(t, server, http.MethodGet, "/orders/my-orders", customerToken, nil)
	requireStatus(t, "my orders", status, http.StatusOK, resp)
	if resp["total"] != float64(2) {
		t.Fatalf("my orders total: got %v, want 2", resp["total"])
	}
	status, resp = apiCall(t, server, http.MethodGet, "/orders?status=delivered", adminToken, nil)
	requireStatus(t, "admin list", status, http.StatusOK, resp)
	if resp["total"] != float64(1) {
		t.Fatalf("delivered total: got %v, want 1", resp["total"])
	}
	status, resp = apiCall(t, server, http.MethodGet, "/inventory/low-stock", adminToken, nil)
	requireStatus(t, "low stock", status, http.StatusOK, resp)
	if items := resp["items"].([]interface{}); len(items) != 1 {
		t.Fatalf("low stock items: got %d, want 1", len(items))
	}
}

// TestIntegrationConcurrentVerification checks that racing verifications of
// the same payment reconcile inventory exactly once.
func TestIntegrationConcurrentVerification(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()
	runMigrations(t, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()
	queries := database.New(pool)

	gw := newFakeGateway(t)
	defer gw.Close()
	client := gateway.NewClient(gateway.Options{
		BaseURL: gw.URL, KeyID: gatewayKeyID, KeySecret: gatewayKeySecret, Currency: "INR",
	}, zap.NewNop())
	svc := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}, client, service.Config{Currency: "INR", PaymentSecret: gatewayKeySecret})

	dough := createInventory(t, ctx, queries, "Dough", database.InventoryTypeBase, 50, 5, "2.00")
	itemID := createCatalogItem(t, ctx, queries, "Plain", "5.00", dough)
	user, err := queries.CreateUser(ctx, database.CreateUserParams{
		Email: "racer@test.com", FullName: "Racer", HashedPassword: "x", Role: database.UserRoleCustomer,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	res, err := svc.CreateOrder(ctx, service.CreateOrderRequest{
		UserID:          user.ID,
		Items:           []service.OrderLineRequest{{CatalogItemID: itemID.String(), Size: "medium", Quantity: 4}},
		PaymentMethod:   "online",
		DeliveryAddress: "1 Race Track",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	req := service.VerifyPaymentRequest{
		OrderID:   res.Order.ID,
		CallerID:  user.ID,
		IntentID:  res.PaymentIntent.ID,
		PaymentID: "pay_race",
		Signature: gateway.Sign(gatewayKeySecret, res.PaymentIntent.ID, "pay_race"),
	}

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.VerifyPayment(ctx, req); err != nil {
				failures.Add(1)
				t.Logf("verify: %v", err)
			}
		}()
	}
	wg.Wait()

	if failures.Load() != 0 {
		t.Fatalf("%d concurrent verifications failed", failures.Load())
	}
	assertQuantity(t, ctx, queries, dough, 46)
}

// --- Helpers ---

func setupPostgresContainer(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("pizza_test"),
		tcpostgres.WithUsername("pizza"),
		tcpostgres.WithPassword("pizza"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}
	return connStr, cleanup
}

func runMigrations(t *testing.T, connStr string) {
	t.Helper()

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db for migrations: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		t.Fatalf("create migrate driver: %v", err)
	}

	// Go test sets cwd to the package directory.
	m, err := migrate.NewWithDatabaseInstance("file://../database/migrations", "postgres", driver)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("run migrations: %v", err)
	}
}

// newFakeGateway answers POST /v1/orders like the real gateway would.
func newFakeGateway(t *testing.T) *httptest.Server {
	t.Helper()
	var seq atomic.Int64
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != gatewayKeyID || pass != gatewayKeySecret {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body struct {
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":       fmt.Sprintf("order_fake%04d", seq.Add(1)),
			"amount":   body.Amount,
			"currency": body.Currency,
			"status":   "created",
		})
	}))
}

func createAdminUser(t *testing.T, ctx context.Context, q *database.Queries, email, password string) {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if _, err := q.CreateUser(ctx, database.CreateUserParams{
		Email: email, FullName: "Admin", HashedPassword: string(hashed), Role: database.UserRoleAdmin,
	}); err != nil {
		t.Fatalf("create admin: %v", err)
	}
}

func createInventory(t *testing.T, ctx context.Context, q *database.Queries, name string, typ database.InventoryType, qty, threshold int32, cost string) uuid.UUID {
	t.Helper()
	var n pgtype.Numeric
	_ = n.Scan(cost)
	item, err := q.CreateInventoryItem(ctx, database.CreateInventoryItemParams{
		Name: name, ItemType: typ, Quantity: qty, Unit: "pieces", Threshold: threshold, Cost: n,
	})
	if err != nil {
		t.Fatalf("create inventory %s: %v", name, err)
	}
	return item.ID
}

func createCatalogItem(t *testing.T, ctx context.Context, q *database.Queries, name, mediumPrice string, ingredients ...uuid.UUID) uuid.UUID {
	t.Helper()
	item, err := q.CreateCatalogItem(ctx, database.CreateCatalogItemParams{Name: name, Description: name, Category: "veg"})
	if err != nil {
		t.Fatalf("create catalog item: %v", err)
	}
	var price pgtype.Numeric
	_ = price.Scan(mediumPrice)
	if err := q.CreateCatalogItemSize(ctx, database.CreateCatalogItemSizeParams{
		CatalogItemID: item.ID, Size: database.PizzaSizeMedium, Price: price,
	}); err != nil {
		t.Fatalf("create catalog size: %v", err)
	}
	for _, id := range ingredients {
		if err := q.CreateCatalogItemIngredient(ctx, database.CreateCatalogItemIngredientParams{
			CatalogItemID: item.ID, InventoryItemID: id,
		}); err != nil {
			t.Fatalf("create catalog ingredient: %v", err)
		}
	}
	return item.ID
}

func assertQuantity(t *testing.T, ctx context.Context, q *database.Queries, id uuid.UUID, want int32) {
	t.Helper()
	item, err := q.GetInventoryItem(ctx, id)
	if err != nil {
		t.Fatalf("get inventory item: %v", err)
	}
	if item.Quantity != want {
		t.Fatalf("%s quantity: got %d, want %d", item.Name, item.Quantity, want)
	}
}

func loginToken(t *testing.T, server *httptest.Server, email, password string) string {
	t.Helper()
	status, resp := apiCall(t, server, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	requireStatus(t, "login", status, http.StatusOK, resp)
	return resp["accessToken"].(string)
}

func apiCall(t *testing.T, server *httptest.Server, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("marshal: %v", err)
		}
	}
	req, err := http.NewRequest(method, server.URL+path, &buf)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func requireStatus(t *testing.T, step string, got, want int, body map[string]interface{}) {
	t.Helper()
	if got != want {
		t.Fatalf("%s: status %d, want %d; body: %v", step, got, want, body)
	}
}
