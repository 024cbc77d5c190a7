package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/slicehouse/api/internal/database"
	"github.com/slicehouse/api/internal/gateway"
)

const (
	maxOrderNumberRetries = 3
	orderNumberConstraint = "orders_order_number_key"
	estimatedDeliveryIn   = 45 * time.Minute
)

// PaymentGateway creates payment intents. Satisfied by *gateway.Client.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, req gateway.IntentRequest) (gateway.Intent, error)
}

// Config carries the order service's collaborators. Only Currency and
// PaymentSecret are required; the rest default to no-ops.
type Config struct {
	Currency      string
	PaymentSecret string
	Notifier      LowStockNotifier
	Recorder      Recorder
	Logger        *zap.Logger
	Now           func() time.Time
}

// OrderService handles order placement, payment verification, inventory
// reconciliation and status transitions.
type OrderService struct {
	db       DB
	newStore NewOrderStore
	gateway  PaymentGateway
	currency string
	secret   string
	notifier LowStockNotifier
	recorder Recorder
	log      *zap.Logger
	now      func() time.Time
}

func NewOrderService(db DB, newStore NewOrderStore, gw PaymentGateway, cfg Config) *OrderService {
	s := &OrderService{
		db:       db,
		newStore: newStore,
		gateway:  gw,
		currency: cfg.Currency,
		secret:   cfg.PaymentSecret,
		notifier: cfg.Notifier,
		recorder: cfg.Recorder,
		log:      cfg.Logger,
		now:      cfg.Now,
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// CreateOrderRequest is the validated input for placing an order.
type CreateOrderRequest struct {
	UserID          uuid.UUID
	Items           []OrderLineRequest
	PaymentMethod   string
	DeliveryAddress string
	Notes           string
}

// OrderDetail is an order with its lines and status history.
type OrderDetail struct {
	Order   database.Order
	Items   []database.OrderItem
	History []database.OrderStatusHistory
}

// CreateOrderResult is the placed order plus, for online payment, the intent
// the client needs to complete payment.
type CreateOrderResult struct {
	OrderDetail
	PaymentIntent *gateway.Intent
}

// FormatOrderNumber renders PZ<yymmdd><seq>, with seq zero-padded to six digits.
func FormatOrderNumber(t time.Time, seq int64) string {
	return fmt.Sprintf("PZ%s%06d", t.Format("060102"), seq)
}

// CreateOrder prices the request server-side and persists it. For online
// orders a gateway intent is created first and stored on the order; if the
// gateway fails nothing is persisted. COD orders are confirmed immediately
// and reconciled in the same transaction.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	method, err := parsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if req.DeliveryAddress == "" {
		return nil, validationf("delivery address is required")
	}

	store := s.newStore(s.db)
	lines, total, err := priceLines(ctx, store, req.Items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	orderNumber, err := nextOrderNumber(ctx, store, now)
	if err != nil {
		return nil, err
	}

	// The intent is created once; number retries below only redo the insert.
	var intent *gateway.Intent
	if method == database.PaymentMethodOnline {
		in, err := s.gateway.CreateIntent(ctx, gateway.IntentRequest{
			Amount:   total,
			Currency: s.currency,
			Receipt:  orderNumber,
			Notes:    map[string]string{"user_id": req.UserID.String()},
		})
		if err != nil {
			s.log.Error("create payment intent failed",
				zap.String("order_number", orderNumber),
				zap.String("amount", total.StringFixed(2)),
				zap.Error(err),
			)
			return nil, mapGatewayError(err)
		}
		intent = &in
	}

	for attempt := 1; ; attempt++ {
		result, err := s.placeOrder(ctx, req, method, lines, total, orderNumber, intent, now)
		if err == nil {
			s.recorder.OrderCreated(method)
			return result, nil
		}
		if !isUniqueViolation(err, orderNumberConstraint) {
			return nil, err
		}
		// An order number can only collide if the sequence was reset.
		s.log.Warn("order number collision", zap.String("order_number", orderNumber), zap.Int("attempt", attempt), zap.Error(err))
		if attempt == maxOrderNumberRetries {
			return nil, fmt.Errorf("%w: order number already taken", ErrConflict)
		}
		if orderNumber, err = nextOrderNumber(ctx, store, now); err != nil {
			return nil, err
		}
	}
}

func nextOrderNumber(ctx context.Context, store OrderStore, now time.Time) (string, error) {
	seq, err := store.NextOrderNumber(ctx)
	if err != nil {
		return "", fmt.Errorf("next order number: %w", err)
	}
	return FormatOrderNumber(now, seq), nil
}

func (s *OrderService) placeOrder(ctx context.Context, req CreateOrderRequest, method database.PaymentMethod, lines []pricedLine, total decimal.Decimal, orderNumber string, intent *gateway.Intent, now time.Time) (*CreateOrderResult, error) {
	status := database.OrderStatusConfirmed
	gatewayIntentID := pgtype.Text{}
	if intent != nil {
		status = database.OrderStatusPending
		gatewayIntentID = pgtype.Text{String: intent.ID, Valid: true}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	txStore := s.newStore(tx)

	order, err := txStore.CreateOrder(ctx, database.CreateOrderParams{
		OrderNumber:           orderNumber,
		UserID:                req.UserID,
		TotalAmount:           decimalToNumeric(total),
		Status:                status,
		PaymentMethod:         method,
		PaymentStatus:         database.PaymentStatusPending,
		GatewayIntentID:       gatewayIntentID,
		DeliveryAddress:       req.DeliveryAddress,
		Notes:                 optionalText(req.Notes),
		EstimatedDeliveryTime: pgtype.Timestamptz{Time: now.Add(estimatedDeliveryIn), Valid: true},
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	items := make([]database.OrderItem, 0, len(lines))
	for _, line := range lines {
		line.params.OrderID = order.ID
		item, err := txStore.CreateOrderItem(ctx, line.params)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}

	entry, err := txStore.AppendOrderStatusHistory(ctx, database.AppendOrderStatusHistoryParams{
		OrderID: order.ID,
		Status:  status,
		ActorID: req.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("append status history: %w", err)
	}

	if err := txStore.RecordUserOrder(ctx, req.UserID); err != nil {
		return nil, fmt.Errorf("record user order: %w", err)
	}

	var signals []LowStockSignal
	if method == database.PaymentMethodCashOnDelivery {
		signals, err = s.reconcile(ctx, txStore, order.ID, items)
		if err != nil {
			return nil, fmt.Errorf("reconcile inventory: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.log.Info("order created",
		zap.Stringer("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("payment_method", string(method)),
		zap.String("total", total.StringFixed(2)),
	)
	s.emitLowStock(ctx, signals)

	return &CreateOrderResult{
		OrderDetail: OrderDetail{
			Order:   order,
			Items:   items,
			History: []database.OrderStatusHistory{entry},
		},
		PaymentIntent: intent,
	}, nil
}

func parsePaymentMethod(s string) (database.PaymentMethod, error) {
	switch m := database.PaymentMethod(s); m {
	case database.PaymentMethodOnline, database.PaymentMethodCashOnDelivery:
		return m, nil
	}
	return "", validationf("payment method must be %q or %q", database.PaymentMethodOnline, database.PaymentMethodCashOnDelivery)
}

// loadDetail reads an order's lines and history through store.
func loadDetail(ctx context.Context, store OrderStore, order database.Order) (*OrderDetail, error) {
	items, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	history, err := store.ListOrderStatusHistory(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list status history: %w", err)
	}
	return &OrderDetail{Order: order, Items: items, History: history}, nil
}
