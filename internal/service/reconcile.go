package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/slicehouse/api/internal/database"
)

// reconcile decrements inventory for every component of the order's lines.
// It runs inside the caller's transaction and is a no-op for an order that
// has already been reconciled. Decrements are not availability-checked:
// stock floors at zero and over-commits are logged.
func (s *OrderService) reconcile(ctx context.Context, store OrderStore, orderID uuid.UUID, items []database.OrderItem) ([]LowStockSignal, error) {
	n, err := store.MarkOrderReconciled(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("mark reconciled: %w", err)
	}
	if n == 0 {
		s.log.Info("order already reconciled", zap.Stringer("order_id", orderID))
		return nil, nil
	}

	amounts := make(map[uuid.UUID]int32)
	for _, item := range items {
		components, err := componentsOf(ctx, store, item)
		if err != nil {
			return nil, err
		}
		for _, id := range components {
			amounts[id] += item.Quantity
		}
	}

	// Fixed lock order across concurrent reconciliations.
	ids := make([]uuid.UUID, 0, len(amounts))
	for id := range amounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })

	now := s.now()
	var signals []LowStockSignal
	for _, id := range ids {
		amount := amounts[id]
		row, err := store.DecrementInventoryItem(ctx, database.DecrementInventoryItemParams{ID: id, Amount: amount})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				s.log.Warn("inventory component missing, skipped",
					zap.Stringer("order_id", orderID),
					zap.Stringer("item_id", id),
				)
				continue
			}
			return nil, fmt.Errorf("decrement %s: %w", id, err)
		}

		if row.PreviousQuantity < amount {
			s.log.Warn("inventory over-committed",
				zap.Stringer("order_id", orderID),
				zap.Stringer("item_id", id),
				zap.String("name", row.Name),
				zap.Int32("available", row.PreviousQuantity),
				zap.Int32("requested", amount),
			)
		}

		if row.PreviousQuantity > row.Threshold && row.Quantity <= row.Threshold {
			signals = append(signals, LowStockSignal{
				ItemID:    row.ID,
				Name:      row.Name,
				ItemType:  row.ItemType,
				Unit:      row.Unit,
				Quantity:  row.Quantity,
				Threshold: row.Threshold,
				OrderID:   orderID,
				At:        now,
			})
		}
	}
	return signals, nil
}

func componentsOf(ctx context.Context, store OrderStore, item database.OrderItem) ([]uuid.UUID, error) {
	if item.Composition != nil {
		var c Composition
		if err := json.Unmarshal(item.Composition, &c); err != nil {
			return nil, fmt.Errorf("decode composition of item %s: %w", item.ID, err)
		}
		return c.Components(), nil
	}
	if !item.CatalogItemID.Valid {
		return nil, nil
	}
	ids, err := store.ListCatalogItemIngredients(ctx, uuid.UUID(item.CatalogItemID.Bytes))
	if err != nil {
		return nil, fmt.Errorf("list ingredients of %s: %w", item.Name, err)
	}
	return ids, nil
}

// emitLowStock hands signals to the notifier once the transaction is durable.
// Delivery is detached from ctx so a dropped client cannot cancel it.
func (s *OrderService) emitLowStock(ctx context.Context, signals []LowStockSignal) {
	if len(signals) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.recorder.LowStock(len(signals))
	for _, sig := range signals {
		s.log.Warn("inventory low stock",
			zap.Stringer("item_id", sig.ItemID),
			zap.String("name", sig.Name),
			zap.Int32("quantity", sig.Quantity),
			zap.Int32("threshold", sig.Threshold),
		)
	}
	if err := s.notifier.NotifyLowStock(ctx, signals); err != nil {
		s.log.Error("low stock notification failed", zap.Int("signals", len(signals)), zap.Error(err))
	}
}
