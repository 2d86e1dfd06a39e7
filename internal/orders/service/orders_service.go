package service

import (
	"context"
	"errors"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/orders/domain"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/orders/repository"
	"github.com/google/uuid"
)

// OrderService serves a customer's order history.
type OrderService struct {
	repo repository.OrderRepository
}

func NewOrderService(repo repository.OrderRepository) *OrderService {
	return &OrderService{repo: repo}
}

// ListForUser returns the user's orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	orders, err := s.repo.ListOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	return orders, nil
}

// GetForUser returns one order. Orders of other users are reported as not found.
func (s *OrderService) GetForUser(ctx context.Context, userID string, id uuid.UUID) (*domain.Order, error) {
	o, err := s.repo.GetOrderByID(ctx, id)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}
