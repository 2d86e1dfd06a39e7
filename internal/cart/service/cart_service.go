package service

import (
	"context"
	"errors"
	"time"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/cart/cache"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/cart/domain"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/cart/repository"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CartService loads and stores cart snapshots, reading through the cache.
type CartService struct {
	repo  repository.CartRepository
	cache cache.CartCache
	sfg   singleflight.Group // Prevents cache stampede
	log   *zap.Logger
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, log *zap.Logger) *CartService {
	return &CartService{
		repo:  repo,
		cache: cache,
		log:   logger.OrNop(log),
	}
}

// Load rebuilds the cart saved under key. A key with no saved cart yields an empty cart.
func (s *CartService) Load(ctx context.Context, key string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		snapshot, err := s.cache.Get(ctx, key)
		if err == nil {
			return snapshot, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("cart cache get failed", zap.String("session_key", key), zap.Error(err))
		}

		snapshot, err = s.repo.GetCart(ctx, key)
		if errors.Is(err, repository.ErrCartNotFound) {
			return &domain.Snapshot{Key: key, UpdatedAt: time.Now()}, nil
		}
		if err != nil {
			return nil, err
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if errSet := s.cache.Set(ctx, key, snapshot); errSet != nil {
				s.log.Warn("cart cache set failed", zap.String("session_key", key), zap.Error(errSet))
			}
		}()

		return snapshot, nil
	})
	if err != nil {
		return nil, err
	}

	return domain.Restore(*v.(*domain.Snapshot)), nil
}

// Save writes the cart's current lines under key.
func (s *CartService) Save(ctx context.Context, key string, cart *domain.Cart) error {
	snapshot := cart.Snapshot(key)
	if err := s.repo.UpsertCart(ctx, &snapshot); err != nil {
		s.log.Error("repo upsert cart failed", zap.String("session_key", key), zap.Error(err))
		return err
	}

	invalidateCache(s, key)
	return nil
}

// Delete removes the saved cart. A key with nothing saved is not an error.
func (s *CartService) Delete(ctx context.Context, key string) error {
	err := s.repo.DeleteCart(ctx, key)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		s.log.Error("repo delete cart failed", zap.String("session_key", key), zap.Error(err))
		return err
	}

	invalidateCache(s, key)
	return nil
}

func invalidateCache(s *CartService, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, key); err != nil {
		s.log.Warn("cart cache invalidate failed", zap.String("session_key", key), zap.Error(err))
	}
}
