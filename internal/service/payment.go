package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/slicehouse/api/internal/database"
	"github.com/slicehouse/api/internal/gateway"
)

// VerifyPaymentRequest is the client's proof of payment.
type VerifyPaymentRequest struct {
	OrderID   uuid.UUID
	CallerID  uuid.UUID
	IsAdmin   bool
	IntentID  string
	PaymentID string
	Signature string
}

// VerifyPayment looks up the order, checks the gateway signature and, on
// success, marks the order paid, confirms it and reconciles inventory, all in
// one transaction. Verifying an already-paid order returns it unchanged.
func (s *OrderService) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*OrderDetail, error) {
	detail, outcome, err := s.verifyPayment(ctx, req)
	s.recorder.PaymentVerification(outcome)
	return detail, err
}

func (s *OrderService) verifyPayment(ctx context.Context, req VerifyPaymentRequest) (*OrderDetail, string, error) {
	if req.IntentID == "" || req.PaymentID == "" || req.Signature == "" {
		return nil, OutcomeRejected, validationf("gateway intent id, payment id and signature are required")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, OutcomeError, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, OutcomeRejected, fmt.Errorf("order %s: %w", req.OrderID, ErrNotFound)
		}
		return nil, OutcomeError, fmt.Errorf("get order: %w", err)
	}
	if !req.IsAdmin && order.UserID != req.CallerID {
		return nil, OutcomeRejected, fmt.Errorf("order %s: %w", req.OrderID, ErrNotFound)
	}
	if !gateway.Verify(s.secret, req.IntentID, req.PaymentID, req.Signature) {
		s.log.Warn("payment signature mismatch",
			zap.Stringer("order_id", req.OrderID),
			zap.String("intent_id", req.IntentID),
		)
		return nil, OutcomeInvalidSignature, ErrInvalidSignature
	}
	if !order.GatewayIntentID.Valid || order.GatewayIntentID.String != req.IntentID {
		s.log.Warn("payment intent does not match order",
			zap.Stringer("order_id", order.ID),
			zap.String("intent_id", req.IntentID),
		)
		return nil, OutcomeInvalidSignature, ErrInvalidSignature
	}

	if order.PaymentStatus == database.PaymentStatusCompleted {
		detail, err := loadDetail(ctx, store, order)
		if err != nil {
			return nil, OutcomeError, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, OutcomeError, fmt.Errorf("commit tx: %w", err)
		}
		s.log.Info("payment already verified", zap.Stringer("order_id", order.ID))
		return detail, OutcomeDuplicate, nil
	}
	if order.Status == database.OrderStatusCancelled {
		return nil, OutcomeRejected, fmt.Errorf("%w: order %s is cancelled", ErrConflict, order.OrderNumber)
	}

	paid, err := store.MarkOrderPaid(ctx, database.MarkOrderPaidParams{
		ID:               order.ID,
		GatewayPaymentID: pgtype.Text{String: req.PaymentID, Valid: true},
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, OutcomeRejected, fmt.Errorf("%w: order %s payment is %s", ErrConflict, order.OrderNumber, order.PaymentStatus)
		}
		return nil, OutcomeError, fmt.Errorf("mark order paid: %w", err)
	}

	if paid.Status != order.Status {
		if _, err := store.AppendOrderStatusHistory(ctx, database.AppendOrderStatusHistoryParams{
			OrderID: paid.ID,
			Status:  paid.Status,
			ActorID: req.CallerID,
		}); err != nil {
			return nil, OutcomeError, fmt.Errorf("append status history: %w", err)
		}
	}

	items, err := store.ListOrderItemsByOrder(ctx, paid.ID)
	if err != nil {
		return nil, OutcomeError, fmt.Errorf("list order items: %w", err)
	}
	signals, err := s.reconcile(ctx, store, paid.ID, items)
	if err != nil {
		return nil, OutcomeError, fmt.Errorf("reconcile inventory: %w", err)
	}

	history, err := store.ListOrderStatusHistory(ctx, paid.ID)
	if err != nil {
		return nil, OutcomeError, fmt.Errorf("list status history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, OutcomeError, fmt.Errorf("commit tx: %w", err)
	}

	s.log.Info("payment verified",
		zap.Stringer("order_id", paid.ID),
		zap.String("order_number", paid.OrderNumber),
		zap.String("payment_id", req.PaymentID),
	)
	s.emitLowStock(ctx, signals)

	return &OrderDetail{Order: paid, Items: items, History: history}, OutcomeVerified, nil
}
