package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/slicehouse/api/internal/enum"
	"github.com/slicehouse/api/internal/service"
	"github.com/slicehouse/api/internal/ws"
)

// Broadcaster is satisfied by *ws.Hub.
type Broadcaster interface {
	Broadcast(ctx context.Context, room string, event ws.Event) error
}

// HubNotifier pushes low-stock signals to connected admin dashboards.
type HubNotifier struct {
	hub Broadcaster
}

func NewHubNotifier(hub Broadcaster) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyLowStock(ctx context.Context, signals []service.LowStockSignal) error {
	var errs []error
	for _, sig := range signals {
		payload, err := json.Marshal(sig)
		if err != nil {
			errs = append(errs, fmt.Errorf("marshal signal %s: %w", sig.ItemID, err))
			continue
		}
		if err := n.hub.Broadcast(ctx, ws.RoomInventory, ws.Event{Type: enum.EventLowStock, Payload: payload}); err != nil {
			errs = append(errs, fmt.Errorf("broadcast signal %s: %w", sig.ItemID, err))
		}
	}
	return errors.Join(errs...)
}

// Multi delivers to every notifier, even when some fail.
type Multi []service.LowStockNotifier

func (m Multi) NotifyLowStock(ctx context.Context, signals []service.LowStockSignal) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyLowStock(ctx, signals); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
