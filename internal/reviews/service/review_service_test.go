package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/auth"
	catalog "github.com/Hariskhan09400/x-one-boutique-1/internal/catalog/domain"
	checkout "github.com/Hariskhan09400/x-one-boutique-1/internal/checkout/domain"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/reviews/domain"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/reviews/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNoProduct = errors.New("product not found")

type mockRepo struct {
	mu      sync.RWMutex
	reviews map[uuid.UUID]*domain.Review
}

func newMockRepo() *mockRepo {
	return &mockRepo{reviews: make(map[uuid.UUID]*domain.Review)}
}

func (m *mockRepo) InsertReview(_ context.Context, r *domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.reviews[r.ID] = &cp
	return nil
}

func (m *mockRepo) GetReview(_ context.Context, id uuid.UUID) (*domain.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reviews[id]
	if !ok {
		return nil, repository.ErrReviewNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockRepo) ListByProduct(_ context.Context, productID string, limit int64) ([]*domain.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Review
	for _, r := range m.reviews {
		if r.ProductID == productID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockRepo) DeleteReview(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[id]; !ok {
		return repository.ErrReviewNotFound
	}
	delete(m.reviews, id)
	return nil
}

type mockCatalog struct{}

func (mockCatalog) GetProduct(_ context.Context, id string) (*catalog.Product, error) {
	if id != "ts1" {
		return nil, errNoProduct
	}
	return &catalog.Product{ID: id}, nil
}

func newTestService() (*ReviewService, *mockRepo) {
	repo := newMockRepo()
	svc := NewReviewService(repo, mockCatalog{}, nil)
	return svc, repo
}

func TestPost(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	r, err := svc.Post(ctx, &auth.User{ID: "u1", Email: "asha@example.com"}, "ts1", 5, " Lovely ")
	require.NoError(t, err)
	assert.Equal(t, "asha", r.Username)
	assert.Equal(t, "Lovely", r.Comment)

	_, err = svc.Post(ctx, nil, "ts1", 5, "x")
	assert.ErrorIs(t, err, checkout.ErrAuthRequired)

	_, err = svc.Post(ctx, &auth.User{ID: "u1"}, "nope", 5, "x")
	assert.ErrorIs(t, err, errNoProduct)

	_, err = svc.Post(ctx, &auth.User{ID: "u1"}, "ts1", 9, "x")
	assert.ErrorIs(t, err, domain.ErrInvalidRating)
}

func TestList_NewestFirst(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	user := &auth.User{ID: "u1", Name: "Asha"}

	base := time.Now()
	for i, c := range []string{"old", "new"} {
		svc.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		_, err := svc.Post(ctx, user, "ts1", 4, c)
		require.NoError(t, err)
	}

	reviews, err := svc.List(ctx, "ts1")
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "new", reviews[0].Comment)
	assert.Equal(t, "Asha", reviews[0].Username)

	none, err := svc.List(ctx, "j1")
	require.NoError(t, err)
	assert.NotNil(t, none)
}

func TestDelete_OwnerOnly(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	owner := &auth.User{ID: "u1"}

	r, err := svc.Post(ctx, owner, "ts1", 3, "ok")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, &auth.User{ID: "u2"}, r.ID), ErrNotOwner)
	assert.ErrorIs(t, svc.Delete(ctx, nil, r.ID), checkout.ErrAuthRequired)
	assert.Len(t, repo.reviews, 1)

	require.NoError(t, svc.Delete(ctx, owner, r.ID))
	assert.ErrorIs(t, svc.Delete(ctx, owner, r.ID), ErrReviewNotFound)
}
