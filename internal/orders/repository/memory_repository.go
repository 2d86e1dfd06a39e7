package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/orders/domain"
	"github.com/google/uuid"
)

// MemoryRepository keeps orders in process. Used when ORDERS_STORE=memory and in tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*domain.Order
	refs   map[string]uuid.UUID
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders: make(map[uuid.UUID]*domain.Order),
		refs:   make(map[string]uuid.UUID),
		now:    time.Now,
	}
}

func (m *MemoryRepository) InsertOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[order.ID]; ok {
		return ErrDuplicateOrder
	}
	if order.PaymentRef != "" {
		if _, ok := m.refs[order.PaymentRef]; ok {
			return ErrDuplicatePaymentRef
		}
		m.refs[order.PaymentRef] = order.ID
	}
	m.orders[order.ID] = order.Clone()
	return nil
}

func (m *MemoryRepository) UpdateOrderStatus(_ context.Context, id uuid.UUID, mode domain.PaymentMode, paymentRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	if !domain.CanTransitionTo(o.PaymentMode, mode) {
		return fmt.Errorf("%w: %s to %s", ErrIllegalTransition, o.PaymentMode, mode)
	}
	if paymentRef != "" {
		if owner, taken := m.refs[paymentRef]; taken && owner != id {
			return ErrDuplicatePaymentRef
		}
		m.refs[paymentRef] = id
	}

	o.PaymentMode = mode
	o.PaymentRef = paymentRef
	o.UpdatedAt = m.now()
	return nil
}

func (m *MemoryRepository) GetOrderByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return o.Clone(), nil
}

func (m *MemoryRepository) ListOrdersByUserID(_ context.Context, userID string) ([]*domain.Order, error) {
	out := m.filter(func(o *domain.Order) bool { return o.UserID == userID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepository) ListAwaitingOlderThan(_ context.Context, cutoff time.Time, limit int) ([]*domain.Order, error) {
	out := m.filter(func(o *domain.Order) bool {
		return o.PaymentMode == domain.PaymentModeOnlineAwaiting && o.CreatedAt.Before(cutoff)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count is the number of stored orders.
func (m *MemoryRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.orders)
}

func (m *MemoryRepository) Close() error {
	return nil
}

func (m *MemoryRepository) filter(keep func(*domain.Order) bool) []*domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.Order
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, o.Clone())
		}
	}
	return out
}
