package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/slicehouse/api/internal/database"
)

// LowStockLister is satisfied by *database.Queries.
type LowStockLister interface {
	ListLowStockInventoryItems(ctx context.Context) ([]database.InventoryItem, error)
}

// LowStockSweeper periodically reports every item at or below its threshold,
// independent of whether an order just crossed it.
type LowStockSweeper struct {
	items    LowStockLister
	notifier LowStockNotifier
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time
}

func NewLowStockSweeper(items LowStockLister, notifier LowStockNotifier, interval time.Duration, log *zap.Logger) *LowStockSweeper {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LowStockSweeper{items: items, notifier: notifier, interval: interval, log: log, now: time.Now}
}

// Sweep sends one batch of signals for the current low-stock items and
// returns how many were reported. Signals carry no order id.
func (s *LowStockSweeper) Sweep(ctx context.Context) (int, error) {
	items, err := s.items.ListLowStockInventoryItems(ctx)
	if err != nil {
		return 0, fmt.Errorf("list low stock items: %w", err)
	}
	if len(items) == 0 {
		return 0, nil
	}

	at := s.now()
	signals := make([]LowStockSignal, 0, len(items))
	for _, it := range items {
		signals = append(signals, LowStockSignal{
			ItemID:    it.ID,
			Name:      it.Name,
			ItemType:  it.ItemType,
			Unit:      it.Unit,
			Quantity:  it.Quantity,
			Threshold: it.Threshold,
			At:        at,
		})
	}
	if err := s.notifier.NotifyLowStock(ctx, signals); err != nil {
		return len(signals), fmt.Errorf("notify low stock: %w", err)
	}
	return len(signals), nil
}

// Run sweeps every interval until ctx is cancelled. A non-positive interval
// disables the sweep.
func (s *LowStockSweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				s.log.Error("low stock sweep failed", zap.Error(err))
				continue
			}
			s.log.Info("low stock sweep completed", zap.Int("items", n))
		}
	}
}
