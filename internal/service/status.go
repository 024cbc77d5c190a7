package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/slicehouse/api/internal/database"
)

// statusRank orders the forward lifecycle. Cancelled is not ranked.
var statusRank = map[database.OrderStatus]int{
	database.OrderStatusPending:        0,
	database.OrderStatusConfirmed:      1,
	database.OrderStatusPreparing:      2,
	database.OrderStatusReady:          3,
	database.OrderStatusOutForDelivery: 4,
	database.OrderStatusDelivered:      5,
}

// customerCancellable are the statuses from which an order's owner may cancel.
var customerCancellable = map[database.OrderStatus]bool{
	database.OrderStatusPending:   true,
	database.OrderStatusConfirmed: true,
}

// ParseStatus validates a status name.
func ParseStatus(s string) (database.OrderStatus, error) {
	st := database.OrderStatus(s)
	if _, ok := statusRank[st]; ok || st == database.OrderStatusCancelled {
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// IsTerminal reports whether no further transitions are possible.
func IsTerminal(s database.OrderStatus) bool {
	return s == database.OrderStatusDelivered || s == database.OrderStatusCancelled
}

// CanTransition reports whether from -> to is a legal, state-changing move.
// Forward moves may skip steps; cancellation is allowed from any non-terminal
// status.
func CanTransition(from, to database.OrderStatus) bool {
	if from == to || IsTerminal(from) {
		return false
	}
	if to == database.OrderStatusCancelled {
		return true
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	return ok && toRank > fromRank
}

// ApplyTransition computes the update for moving order to status to at now,
// including payment side effects. changed is false when the order is already
// in that status.
func ApplyTransition(order database.Order, to database.OrderStatus, now time.Time) (params database.UpdateOrderStatusParams, changed bool, err error) {
	if _, err := ParseStatus(string(to)); err != nil {
		return params, false, err
	}
	if order.Status == to {
		return params, false, nil
	}
	if !CanTransition(order.Status, to) {
		return params, false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, to)
	}

	params = database.UpdateOrderStatusParams{
		ID:                   order.ID,
		CurrentStatus:        order.Status,
		CurrentPaymentStatus: order.PaymentStatus,
		Status:               to,
		PaymentStatus:        order.PaymentStatus,
		ActualDeliveryTime:   order.ActualDeliveryTime,
	}
	switch to {
	case database.OrderStatusCancelled:
		if order.PaymentStatus == database.PaymentStatusCompleted {
			params.PaymentStatus = database.PaymentStatusRefunded
		}
	case database.OrderStatusDelivered:
		if order.PaymentMethod == database.PaymentMethodCashOnDelivery {
			params.PaymentStatus = database.PaymentStatusCompleted
		}
		params.ActualDeliveryTime = pgtype.Timestamptz{Time: now, Valid: true}
	}
	return params, true, nil
}

// UpdateStatus moves an order to status on behalf of an admin.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string, actorID uuid.UUID) (*OrderDetail, error) {
	to, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, orderID, to, actorID, nil)
}

// CancelOrder lets the order's owner cancel while it is still pending or
// confirmed.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, callerID uuid.UUID) (*OrderDetail, error) {
	return s.transition(ctx, orderID, database.OrderStatusCancelled, callerID, func(o database.Order) error {
		if o.UserID != callerID {
			return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
		}
		if !customerCancellable[o.Status] {
			return fmt.Errorf("%w: order is %s", ErrInvalidTransition, o.Status)
		}
		return nil
	})
}

func (s *OrderService) transition(ctx context.Context, orderID uuid.UUID, to database.OrderStatus, actorID uuid.UUID, guard func(database.Order) error) (*OrderDetail, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// Locks the row against a concurrent payment verification.
	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if guard != nil {
		if err := guard(order); err != nil {
			return nil, err
		}
	}

	params, changed, err := ApplyTransition(order, to, s.now())
	if err != nil {
		return nil, err
	}

	if changed {
		// Optimistic lock: status and payment must not have moved since we read them.
		updated, err := store.UpdateOrderStatus(ctx, params)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: order changed concurrently", ErrConflict)
			}
			return nil, fmt.Errorf("update order status: %w", err)
		}
		if _, err := store.AppendOrderStatusHistory(ctx, database.AppendOrderStatusHistoryParams{
			OrderID: updated.ID,
			Status:  updated.Status,
			ActorID: actorID,
		}); err != nil {
			return nil, fmt.Errorf("append status history: %w", err)
		}
		order = updated
	}

	detail, err := loadDetail(ctx, store, order)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	if changed {
		s.log.Info("order status updated",
			zap.Stringer("order_id", order.ID),
			zap.String("from", string(params.CurrentStatus)),
			zap.String("to", string(order.Status)),
			zap.String("payment_status", string(order.PaymentStatus)),
			zap.Stringer("actor_id", actorID),
		)
	}
	return detail, nil
}
