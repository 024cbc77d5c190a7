package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/slicehouse/api/internal/database"
)

// GetOrder returns an order visible to the caller. Orders owned by someone
// else are reported as not found unless the caller is an admin.
func (s *OrderService) GetOrder(ctx context.Context, orderID, callerID uuid.UUID, isAdmin bool) (*OrderDetail, error) {
	store := s.newStore(s.db)
	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if !isAdmin && order.UserID != callerID {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	return loadDetail(ctx, store, order)
}

// ListFilter narrows an order listing. A nil UserID lists every user's orders.
type ListFilter struct {
	UserID *uuid.UUID
	Status string
	Limit  int32
	Offset int32
}

// ListOrders returns a page of orders, newest first, and the total count.
func (s *OrderService) ListOrders(ctx context.Context, f ListFilter) ([]database.Order, int64, error) {
	status := database.NullOrderStatus{}
	if f.Status != "" {
		st, err := ParseStatus(f.Status)
		if err != nil {
			return nil, 0, err
		}
		status = database.NullOrderStatus{OrderStatus: st, Valid: true}
	}

	store := s.newStore(s.db)
	if f.UserID != nil {
		orders, err := store.ListOrdersByUser(ctx, database.ListOrdersByUserParams{
			UserID:      *f.UserID,
			Status:      status,
			LimitCount:  f.Limit,
			OffsetCount: f.Offset,
		})
		if err != nil {
			return nil, 0, fmt.Errorf("list orders: %w", err)
		}
		total, err := store.CountOrdersByUser(ctx, database.CountOrdersByUserParams{UserID: *f.UserID, Status: status})
		if err != nil {
			return nil, 0, fmt.Errorf("count orders: %w", err)
		}
		return orders, total, nil
	}

	orders, err := store.ListOrders(ctx, database.ListOrdersParams{
		Status:      status,
		LimitCount:  f.Limit,
		OffsetCount: f.Offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	total, err := store.CountOrders(ctx, status)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}
	return orders, total, nil
}
