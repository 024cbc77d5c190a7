package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slicehouse/api/internal/database"
	"github.com/slicehouse/api/internal/gateway"
	"github.com/slicehouse/api/internal/idempotency"
	"github.com/slicehouse/api/internal/middleware"
	"github.com/slicehouse/api/internal/service"
)

// IdempotencyKeyHeader lets clients retry order creation safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	VerifyPayment(ctx context.Context, req service.VerifyPaymentRequest) (*service.OrderDetail, error)
	GetOrder(ctx context.Context, orderID, callerID uuid.UUID, isAdmin bool) (*service.OrderDetail, error)
	ListOrders(ctx context.Context, f service.ListFilter) ([]database.Order, int64, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status string, actorID uuid.UUID) (*service.OrderDetail, error)
	CancelOrder(ctx context.Context, orderID, callerID uuid.UUID) (*service.OrderDetail, error)
}

// IdempotencyGuard is satisfied by *idempotency.Store.
type IdempotencyGuard interface {
	Claim(ctx context.Context, userID uuid.UUID, key string) (bool, error)
	Release(ctx context.Context, userID uuid.UUID, key string) error
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc  OrderServicer
	idem IdempotencyGuard
	log  *zap.Logger
}

// NewOrderHandler creates a new OrderHandler. idem may be nil, in which case
// the Idempotency-Key header is ignored.
func NewOrderHandler(svc OrderServicer, idem IdempotencyGuard, log *zap.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, idem: idem, log: log}
}

// RegisterRoutes registers customer order endpoints. Expects authenticated,
// user-loaded requests.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.Create)
	r.Post("/orders/verify-payment", h.VerifyPayment)
	r.Get("/orders/my-orders", h.ListMine)
	r.Get("/orders/{id}", h.Get)
	r.Post("/orders/{id}/cancel", h.Cancel)
}

// RegisterAdminRoutes registers admin-only order endpoints.
func (h *OrderHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Put("/orders/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type createOrderRequest struct {
	Items           []orderLineRequest `json:"items" validate:"dive"`
	PaymentMethod   string             `json:"paymentMethod" validate:"required"`
	DeliveryAddress string             `json:"deliveryAddress" validate:"required,max=500"`
	Notes           string             `json:"notes" validate:"max=1000"`
}

// orderLineRequest has no price field: any price the client sends is
// dropped by the decoder.
type orderLineRequest struct {
	CatalogItemID string              `json:"catalogItemId"`
	Size          string              `json:"size"`
	Composition   *compositionRequest `json:"customComposition"`
	Quantity      int32               `json:"quantity" validate:"min=1,max=50"`
}

type compositionRequest struct {
	Base    string   `json:"base"`
	Sauce   string   `json:"sauce"`
	Cheese  string   `json:"cheese"`
	Veggies []string `json:"veggies"`
	Meats   []string `json:"meats"`
}

type verifyPaymentRequest struct {
	OrderID          string `json:"orderId" validate:"required,uuid"`
	GatewayIntentID  string `json:"gatewayIntentId" validate:"required"`
	GatewayPaymentID string `json:"gatewayPaymentId" validate:"required"`
	ClientSignature  string `json:"clientSignature" validate:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type orderResponse struct {
	ID                    uuid.UUID             `json:"id"`
	OrderNumber           string                `json:"orderNumber"`
	UserID                uuid.UUID             `json:"userId"`
	Items                 []orderItemResponse   `json:"items,omitempty"`
	TotalAmount           string                `json:"totalAmount"`
	Status                string                `json:"status"`
	PaymentMethod         string                `json:"paymentMethod"`
	PaymentStatus         string                `json:"paymentStatus"`
	GatewayIntentID       *string               `json:"gatewayIntentId"`
	GatewayPaymentID      *string               `json:"gatewayPaymentId"`
	DeliveryAddress       string                `json:"deliveryAddress"`
	Notes                 *string               `json:"notes"`
	EstimatedDeliveryTime *time.Time            `json:"estimatedDeliveryTime"`
	ActualDeliveryTime    *time.Time            `json:"actualDeliveryTime"`
	StatusHistory         []statusEntryResponse `json:"statusHistory,omitempty"`
	CreatedAt             time.Time             `json:"createdAt"`
	UpdatedAt             time.Time             `json:"updatedAt"`
}

type orderItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	CatalogItemID *uuid.UUID      `json:"catalogItemId"`
	Size          *string         `json:"size"`
	Composition   json.RawMessage `json:"customComposition,omitempty"`
	Name          string          `json:"name"`
	Quantity      int32           `json:"quantity"`
	UnitPrice     string          `json:"unitPrice"`
}

type statusEntryResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Actor     uuid.UUID `json:"actor"`
}

type orderEnvelope struct {
	Order         orderResponse   `json:"order"`
	PaymentIntent *gateway.Intent `json:"paymentIntent,omitempty"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := r.Header.Get(IdempotencyKeyHeader)
	claimed := false
	if key != "" && h.idem != nil {
		ok, err := h.idem.Claim(r.Context(), user.ID, key)
		switch {
		case errors.Is(err, idempotency.ErrInvalidKey):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			// Redis outage must not block ordering.
			h.log.Warn("idempotency check skipped", zap.Error(err))
		case !ok:
			writeError(w, http.StatusConflict, "duplicate request: idempotency key already used")
			return
		default:
			claimed = true
		}
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		UserID:          user.ID,
		Items:           toServiceLines(req.Items),
		PaymentMethod:   req.PaymentMethod,
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
	})
	if err != nil {
		if claimed {
			if rerr := h.idem.Release(context.WithoutCancel(r.Context()), user.ID, key); rerr != nil {
				h.log.Warn("release idempotency key failed", zap.Error(rerr))
			}
		}
		writeServiceError(w, h.log, "create order", err)
		return
	}

	writeJSON(w, http.StatusCreated, orderEnvelope{
		Order:         toOrderResponse(&result.OrderDetail),
		PaymentIntent: result.PaymentIntent,
	})
}

// VerifyPayment handles POST /orders/verify-payment.
func (h *OrderHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req verifyPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.svc.VerifyPayment(r.Context(), service.VerifyPaymentRequest{
		OrderID:   uuid.MustParse(req.OrderID),
		CallerID:  user.ID,
		IsAdmin:   user.Role == database.UserRoleAdmin,
		IntentID:  req.GatewayIntentID,
		PaymentID: req.GatewayPaymentID,
		Signature: req.ClientSignature,
	})
	if err != nil {
		writeServiceError(w, h.log, "verify payment", err)
		return
	}

	writeJSON(w, http.StatusOK, orderEnvelope{Order: toOrderResponse(detail)})
}

// ListMine handles GET /orders/my-orders.
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	h.list(w, r, &user.ID)
}

// List handles GET /orders (admin).
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, nil)
}

func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request, userID *uuid.UUID) {
	limit, offset := parsePagination(r)
	orders, total, err := h.svc.ListOrders(r.Context(), service.ListFilter{
		UserID: userID,
		Status: r.URL.Query().Get("status"),
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		writeServiceError(w, h.log, "list orders", err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i := range orders {
		resp[i] = toOrderResponse(&service.OrderDetail{Order: orders[i]})
	}
	writeJSON(w, http.StatusOK, orderListResponse{
		Orders: resp,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	detail, err := h.svc.GetOrder(r.Context(), orderID, user.ID, user.Role == database.UserRoleAdmin)
	if err != nil {
		writeServiceError(w, h.log, "get order", err)
		return
	}
	writeJSON(w, http.StatusOK, orderEnvelope{Order: toOrderResponse(detail)})
}

// Cancel handles POST /orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	detail, err := h.svc.CancelOrder(r.Context(), orderID, user.ID)
	if err != nil {
		writeServiceError(w, h.log, "cancel order", err)
		return
	}
	writeJSON(w, http.StatusOK, orderEnvelope{Order: toOrderResponse(detail)})
}

// UpdateStatus handles PUT /orders/{id}/status (admin).
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.svc.UpdateStatus(r.Context(), orderID, req.Status, user.ID)
	if err != nil {
		writeServiceError(w, h.log, "update order status", err)
		return
	}
	writeJSON(w, http.StatusOK, orderEnvelope{Order: toOrderResponse(detail)})
}

// --- Helpers ---

func toServiceLines(lines []orderLineRequest) []service.OrderLineRequest {
	out := make([]service.OrderLineRequest, len(lines))
	for i, l := range lines {
		out[i] = service.OrderLineRequest{
			CatalogItemID: l.CatalogItemID,
			Size:          l.Size,
			Quantity:      l.Quantity,
		}
		if c := l.Composition; c != nil {
			out[i].Composition = &service.CompositionRequest{
				Base:    c.Base,
				Sauce:   c.Sauce,
				Cheese:  c.Cheese,
				Veggies: c.Veggies,
				Meats:   c.Meats,
			}
		}
	}
	return out
}

func toOrderResponse(d *service.OrderDetail) orderResponse {
	o := d.Order
	resp := orderResponse{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		UserID:           o.UserID,
		TotalAmount:      numericToString(o.TotalAmount),
		Status:           string(o.Status),
		PaymentMethod:    string(o.PaymentMethod),
		PaymentStatus:    string(o.PaymentStatus),
		GatewayIntentID:  textPtr(o.GatewayIntentID),
		GatewayPaymentID: textPtr(o.GatewayPaymentID),
		DeliveryAddress:  o.DeliveryAddress,
		Notes:            textPtr(o.Notes),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	if o.EstimatedDeliveryTime.Valid {
		t := o.EstimatedDeliveryTime.Time
		resp.EstimatedDeliveryTime = &t
	}
	if o.ActualDeliveryTime.Valid {
		t := o.ActualDeliveryTime.Time
		resp.ActualDeliveryTime = &t
	}
	for _, it := range d.Items {
		item := orderItemResponse{
			ID:        it.ID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: numericToString(it.UnitPrice),
		}
		if it.CatalogItemID.Valid {
			id := uuid.UUID(it.CatalogItemID.Bytes)
			item.CatalogItemID = &id
		}
		if it.Size.Valid {
			s := string(it.Size.PizzaSize)
			item.Size = &s
		}
		if it.Composition != nil {
			item.Composition = json.RawMessage(it.Composition)
		}
		resp.Items = append(resp.Items, item)
	}
	for _, h := range d.History {
		resp.StatusHistory = append(resp.StatusHistory, statusEntryResponse{
			Status:    string(h.Status),
			Timestamp: h.CreatedAt,
			Actor:     h.ActorID,
		})
	}
	return resp
}
