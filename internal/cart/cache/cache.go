package cache

import (
	"context"
	"errors"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/cart/domain"
)

type CartCache interface {
	Get(ctx context.Context, key string) (*domain.Snapshot, error)
	Set(ctx context.Context, key string, snapshot *domain.Snapshot) error
	Delete(ctx context.Context, key string) error
}

var ErrCacheMiss = errors.New("cache miss")
