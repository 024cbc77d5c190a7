package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/slicehouse/api/internal/database"
)

// LowStockSignal reports an inventory item whose quantity crossed to at or
// below its threshold during a reconciliation, or that a periodic sweep
// found low. OrderID is zero for sweeps.
type LowStockSignal struct {
	ItemID    uuid.UUID              `json:"itemId"`
	Name      string                 `json:"name"`
	ItemType  database.InventoryType `json:"type"`
	Unit      string                 `json:"unit"`
	Quantity  int32                  `json:"quantity"`
	Threshold int32                  `json:"threshold"`
	OrderID   uuid.UUID              `json:"orderId"`
	At        time.Time              `json:"at"`
}

// LowStockNotifier receives low-stock signals after the reconciling
// transaction commits. Errors are logged by the caller and never surface.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, signals []LowStockSignal) error
}

// Recorder receives workflow counters. See metrics.OrderMetrics.
type Recorder interface {
	OrderCreated(method database.PaymentMethod)
	PaymentVerification(outcome string)
	LowStock(count int)
}

// Payment verification outcomes passed to Recorder.
const (
	OutcomeVerified         = "verified"
	OutcomeDuplicate        = "duplicate"
	OutcomeInvalidSignature = "invalid_signature"
	OutcomeRejected         = "rejected"
	OutcomeError            = "error"
)

type nopNotifier struct{}

func (nopNotifier) NotifyLowStock(context.Context, []LowStockSignal) error { return nil }

type nopRecorder struct{}

func (nopRecorder) OrderCreated(database.PaymentMethod) {}
func (nopRecorder) PaymentVerification(string)          {}
func (nopRecorder) LowStock(int)                        {}
