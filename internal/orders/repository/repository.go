package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/orders/domain"
	"github.com/google/uuid"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrDuplicateOrder      = errors.New("order already exists")
	ErrDuplicatePaymentRef = errors.New("payment reference already attached to another order")
	ErrIllegalTransition   = errors.New("illegal payment mode transition")
)

type Credentials struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// OrderRepository is the order persistence capability.
type OrderRepository interface {
	InsertOrder(ctx context.Context, order *domain.Order) error
	// UpdateOrderStatus changes the payment mode of an existing order in place.
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, mode domain.PaymentMode, paymentRef string) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	// ListAwaitingOlderThan returns placeholder orders created before cutoff, oldest first.
	ListAwaitingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Order, error)
	Close() error
}

// IsDomainError reports errors that describe the request rather than an unhealthy store.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrDuplicateOrder) ||
		errors.Is(err, ErrDuplicatePaymentRef) ||
		errors.Is(err, ErrIllegalTransition)
}
