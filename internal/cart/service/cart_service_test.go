package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/cart/cache"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/cart/domain"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/cart/repository"
	catalog "github.com/Hariskhan09400/x-one-boutique-1/internal/catalog/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	m        sync.RWMutex
	snapshot *domain.Snapshot
	err      error
	gets     atomic.Int32
	deleted  bool
}

func (m *mockRepository) GetCart(context.Context, string) (*domain.Snapshot, error) {
	m.gets.Add(1)
	time.Sleep(10 * time.Millisecond)
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.snapshot == nil {
		return nil, repository.ErrCartNotFound
	}
	return m.snapshot, nil
}

func (m *mockRepository) UpsertCart(_ context.Context, s *domain.Snapshot) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.snapshot = s
	return nil
}

func (m *mockRepository) DeleteCart(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.snapshot == nil {
		return repository.ErrCartNotFound
	}
	m.snapshot = nil
	m.deleted = true
	return nil
}

type mockCache struct {
	m        sync.RWMutex
	snapshot *domain.Snapshot
	err      error
	deletes  int
}

func (m *mockCache) Get(context.Context, string) (*domain.Snapshot, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.snapshot == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.snapshot, nil
}

func (m *mockCache) Set(_ context.Context, _ string, s *domain.Snapshot) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.snapshot = s
	return nil
}

func (m *mockCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.snapshot = nil
	m.deletes++
	return nil
}

func (m *mockCache) cached() *domain.Snapshot {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.snapshot
}

func savedSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Key: "s1",
		Lines: []domain.Line{
			{ProductID: "ts1", UnitPrice: decimal.NewFromInt(599), Quantity: 2},
		},
	}
}

func TestLoad_FromCache(t *testing.T) {
	repo := &mockRepository{}
	c := &mockCache{snapshot: savedSnapshot()}
	svc := NewCartService(repo, c, nil)

	cart, err := svc.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, cart.ItemCount())
	assert.Equal(t, int32(0), repo.gets.Load())
}

func TestLoad_CacheMissFallsBackToRepoAndFillsCache(t *testing.T) {
	repo := &mockRepository{snapshot: savedSnapshot()}
	c := &mockCache{}
	svc := NewCartService(repo, c, nil)

	cart, err := svc.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "1198", cart.Total().String())

	assert.Eventually(t, func() bool { return c.cached() != nil }, time.Second, 10*time.Millisecond)
}

func TestLoad_CacheErrorStillReadsRepo(t *testing.T) {
	repo := &mockRepository{snapshot: savedSnapshot()}
	c := &mockCache{err: errors.New("redis down")}
	svc := NewCartService(repo, c, nil)

	cart, err := svc.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, cart.ItemCount())
}

func TestLoad_NotFoundReturnsEmptyCart(t *testing.T) {
	svc := NewCartService(&mockRepository{}, &mockCache{}, nil)

	cart, err := svc.Load(context.Background(), "new-session")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestLoad_RepoErrorIsReturned(t *testing.T) {
	repoErr := errors.New("mongo unavailable")
	svc := NewCartService(&mockRepository{err: repoErr}, &mockCache{}, nil)

	cart, err := svc.Load(context.Background(), "s1")
	assert.ErrorIs(t, err, repoErr)
	assert.Nil(t, cart)
}

func TestLoad_ConcurrentMissesShareOneRepoRead(t *testing.T) {
	repo := &mockRepository{snapshot: savedSnapshot()}
	svc := NewCartService(repo, &mockCache{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Load(context.Background(), "s1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Less(t, repo.gets.Load(), int32(20))
}

func TestLoad_ReturnsIndependentCarts(t *testing.T) {
	svc := NewCartService(&mockRepository{}, &mockCache{snapshot: savedSnapshot()}, nil)

	a, err := svc.Load(context.Background(), "s1")
	require.NoError(t, err)
	b, err := svc.Load(context.Background(), "s1")
	require.NoError(t, err)

	a.AddItem(catalog.Product{ID: "ts1", Price: decimal.NewFromInt(599)})
	assert.Equal(t, 3, a.ItemCount())
	assert.Equal(t, 2, b.ItemCount())
}

func TestSave_WritesSnapshotAndInvalidatesCache(t *testing.T) {
	repo := &mockRepository{}
	c := &mockCache{snapshot: savedSnapshot()}
	svc := NewCartService(repo, c, nil)

	cart := domain.NewCart()
	cart.AddItem(catalog.Product{ID: "j1", Price: decimal.NewFromInt(1299)})

	require.NoError(t, svc.Save(context.Background(), "s1", cart))
	require.NotNil(t, repo.snapshot)
	assert.Equal(t, "s1", repo.snapshot.Key)
	assert.Equal(t, "j1", repo.snapshot.Lines[0].ProductID)
	assert.Nil(t, c.cached())
}

func TestSave_RepoError(t *testing.T) {
	repoErr := errors.New("write failed")
	c := &mockCache{}
	svc := NewCartService(&mockRepository{err: repoErr}, c, nil)

	err := svc.Save(context.Background(), "s1", domain.NewCart())
	assert.ErrorIs(t, err, repoErr)
	assert.Equal(t, 0, c.deletes)
}

func TestDelete(t *testing.T) {
	repo := &mockRepository{snapshot: savedSnapshot()}
	c := &mockCache{snapshot: savedSnapshot()}
	svc := NewCartService(repo, c, nil)

	require.NoError(t, svc.Delete(context.Background(), "s1"))
	assert.True(t, repo.deleted)
	assert.Nil(t, c.cached())

	// nothing saved is fine
	require.NoError(t, svc.Delete(context.Background(), "s1"))
}
