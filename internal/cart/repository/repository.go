package repository

import (
	"context"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/cart/domain"
)

// CartRepository persists cart snapshots keyed by shopping session.
type CartRepository interface {
	GetCart(ctx context.Context, key string) (*domain.Snapshot, error)
	UpsertCart(ctx context.Context, snapshot *domain.Snapshot) error
	DeleteCart(ctx context.Context, key string) error
}
