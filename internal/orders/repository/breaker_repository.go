package repository

import (
	"context"
	"time"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/circuitbreaker"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/orders/domain"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BreakerRepository fails fast while the underlying store keeps erroring.
// Domain errors such as not-found do not count against the breaker.
type BreakerRepository struct {
	next   OrderRepository
	writes *gobreaker.CircuitBreaker[struct{}]
	reads  *gobreaker.CircuitBreaker[[]*domain.Order]
}

func NewBreakerRepository(next OrderRepository, log *zap.Logger) *BreakerRepository {
	settings := func(name string) circuitbreaker.Settings {
		s := circuitbreaker.DefaultSettings(name)
		s.IsSuccessful = func(err error) bool { return err == nil || IsDomainError(err) }
		return s
	}
	return &BreakerRepository{
		next:   next,
		writes: circuitbreaker.New[struct{}](settings("orders-write"), log),
		reads:  circuitbreaker.New[[]*domain.Order](settings("orders-read"), log),
	}
}

func (b *BreakerRepository) InsertOrder(ctx context.Context, order *domain.Order) error {
	_, err := b.writes.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.InsertOrder(ctx, order)
	})
	return err
}

func (b *BreakerRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, mode domain.PaymentMode, paymentRef string) error {
	_, err := b.writes.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.UpdateOrderStatus(ctx, id, mode, paymentRef)
	})
	return err
}

func (b *BreakerRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	orders, err := b.reads.Execute(func() ([]*domain.Order, error) {
		o, err := b.next.GetOrderByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return []*domain.Order{o}, nil
	})
	if err != nil {
		return nil, err
	}
	return orders[0], nil
}

func (b *BreakerRepository) ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	return b.reads.Execute(func() ([]*domain.Order, error) {
		return b.next.ListOrdersByUserID(ctx, userID)
	})
}

func (b *BreakerRepository) ListAwaitingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Order, error) {
	return b.reads.Execute(func() ([]*domain.Order, error) {
		return b.next.ListAwaitingOlderThan(ctx, cutoff, limit)
	})
}

func (b *BreakerRepository) Close() error {
	return b.next.Close()
}
