package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/slicehouse/api/internal/database"
	"github.com/slicehouse/api/internal/enum"
)

// InventoryStore defines the database methods needed by inventory handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type InventoryStore interface {
	ListInventoryItems(ctx context.Context, arg database.ListInventoryItemsParams) ([]database.InventoryItem, error)
	ListLowStockInventoryItems(ctx context.Context) ([]database.InventoryItem, error)
	ListInStockInventoryByType(ctx context.Context, itemType database.InventoryType) ([]database.InventoryItem, error)
	GetInventoryItem(ctx context.Context, id uuid.UUID) (database.InventoryItem, error)
	CreateInventoryItem(ctx context.Context, arg database.CreateInventoryItemParams) (database.InventoryItem, error)
	RestockInventoryItem(ctx context.Context, arg database.RestockInventoryItemParams) (database.InventoryItem, error)
}

// InventoryHandler handles inventory endpoints.
type InventoryHandler struct {
	store InventoryStore
	log   *zap.Logger
}

func NewInventoryHandler(store InventoryStore, log *zap.Logger) *InventoryHandler {
	return &InventoryHandler{store: store, log: log}
}

// RegisterPublicRoutes registers the custom-pizza builder listing.
func (h *InventoryHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/inventory/type/{type}", h.ListByType)
}

// RegisterAdminRoutes registers admin-only inventory management.
func (h *InventoryHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/inventory", h.List)
	r.Get("/inventory/low-stock", h.LowStock)
	r.Get("/inventory/{id}", h.Get)
	r.Post("/inventory", h.Create)
	r.Put("/inventory/{id}/restock", h.Restock)
}

// --- Request / Response types ---

type createInventoryRequest struct {
	Name            string `json:"name" validate:"required,max=100"`
	Type            string `json:"type" validate:"required,oneof=base sauce cheese veggie meat"`
	Quantity        int32  `json:"quantity" validate:"gte=0"`
	Unit            string `json:"unit" validate:"required"`
	Threshold       int32  `json:"threshold" validate:"gte=0"`
	Cost            string `json:"cost" validate:"required"`
	SupplierName    string `json:"supplierName" validate:"max=100"`
	SupplierContact string `json:"supplierContact" validate:"max=100"`
}

type restockRequest struct {
	Amount int32 `json:"amount" validate:"gt=0"`
}

type inventoryResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	Quantity        int32     `json:"quantity"`
	Unit            string    `json:"unit"`
	Threshold       int32     `json:"threshold"`
	Cost            string    `json:"cost"`
	SupplierName    *string   `json:"supplierName"`
	SupplierContact *string   `json:"supplierContact"`
	LowStock        bool      `json:"lowStock"`
	LastRestocked   time.Time `json:"lastRestocked"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type inventoryListResponse struct {
	Items  []inventoryResponse `json:"items"`
	Limit  int                 `json:"limit,omitempty"`
	Offset int                 `json:"offset,omitempty"`
}

// --- Handlers ---

// List handles GET /inventory.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	params := database.ListInventoryItemsParams{
		LimitCount:  int32(limit),
		OffsetCount: int32(offset),
	}
	if s := r.URL.Query().Get("type"); s != "" {
		t, ok := parseInventoryType(s)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid inventory type")
			return
		}
		params.ItemType = database.NullInventoryType{InventoryType: t, Valid: true}
	}

	items, err := h.store.ListInventoryItems(r.Context(), params)
	if err != nil {
		h.log.Error("list inventory failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, inventoryListResponse{Items: toInventoryResponses(items), Limit: limit, Offset: offset})
}

// LowStock handles GET /inventory/low-stock.
func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListLowStockInventoryItems(r.Context())
	if err != nil {
		h.log.Error("list low stock failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, inventoryListResponse{Items: toInventoryResponses(items)})
}

// ListByType handles GET /inventory/type/{type}.
func (h *InventoryHandler) ListByType(w http.ResponseWriter, r *http.Request) {
	t, ok := parseInventoryType(chi.URLParam(r, "type"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid inventory type")
		return
	}
	items, err := h.store.ListInStockInventoryByType(r.Context(), t)
	if err != nil {
		h.log.Error("list inventory by type failed", zap.String("type", string(t)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, inventoryListResponse{Items: toInventoryResponses(items)})
}

// Get handles GET /inventory/{id}.
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid inventory item ID")
		return
	}
	item, err := h.store.GetInventoryItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "inventory item not found")
			return
		}
		h.log.Error("get inventory item failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toInventoryResponse(item))
}

// Create handles POST /inventory.
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createInventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !enum.IsValidUnit(req.Unit) {
		writeError(w, http.StatusBadRequest, "unit must be one of: "+strings.Join(enum.InventoryUnits, " "))
		return
	}
	cost, err := decimal.NewFromString(req.Cost)
	if err != nil || cost.IsNegative() {
		writeError(w, http.StatusBadRequest, "cost must be a non-negative decimal")
		return
	}

	item, err := h.store.CreateInventoryItem(r.Context(), database.CreateInventoryItemParams{
		Name:            req.Name,
		ItemType:        database.InventoryType(req.Type),
		Quantity:        req.Quantity,
		Unit:            req.Unit,
		Threshold:       req.Threshold,
		Cost:            decimalToNumeric(cost),
		SupplierName:    optionalText(req.SupplierName),
		SupplierContact: optionalText(req.SupplierContact),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeError(w, http.StatusConflict, "inventory item with this name and type already exists")
			return
		}
		h.log.Error("create inventory item failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.log.Info("inventory item created", zap.Stringer("item_id", item.ID), zap.String("name", item.Name))
	writeJSON(w, http.StatusCreated, toInventoryResponse(item))
}

// Restock handles PUT /inventory/{id}/restock.
func (h *InventoryHandler) Restock(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid inventory item ID")
		return
	}
	var req restockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.store.RestockInventoryItem(r.Context(), database.RestockInventoryItemParams{ID: id, Amount: req.Amount})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "inventory item not found")
			return
		}
		h.log.Error("restock inventory item failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.log.Info("inventory restocked",
		zap.Stringer("item_id", item.ID),
		zap.Int32("amount", req.Amount),
		zap.Int32("quantity", item.Quantity),
	)
	writeJSON(w, http.StatusOK, toInventoryResponse(item))
}

// --- Helpers ---

func parseInventoryType(s string) (database.InventoryType, bool) {
	switch t := database.InventoryType(s); t {
	case database.InventoryTypeBase, database.InventoryTypeSauce, database.InventoryTypeCheese,
		database.InventoryTypeVeggie, database.InventoryTypeMeat:
		return t, true
	}
	return "", false
}

func toInventoryResponses(items []database.InventoryItem) []inventoryResponse {
	out := make([]inventoryResponse, len(items))
	for i, it := range items {
		out[i] = toInventoryResponse(it)
	}
	return out
}

func toInventoryResponse(it database.InventoryItem) inventoryResponse {
	return inventoryResponse{
		ID:              it.ID,
		Name:            it.Name,
		Type:            string(it.ItemType),
		Quantity:        it.Quantity,
		Unit:            it.Unit,
		Threshold:       it.Threshold,
		Cost:            numericToString(it.Cost),
		SupplierName:    textPtr(it.SupplierName),
		SupplierContact: textPtr(it.SupplierContact),
		LowStock:        it.Quantity <= it.Threshold,
		LastRestocked:   it.LastRestocked,
		CreatedAt:       it.CreatedAt,
		UpdatedAt:       it.UpdatedAt,
	}
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

func optionalText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
