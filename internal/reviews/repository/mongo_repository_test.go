package repository

import (
	"context"
	"testing"
	"time"

	cartrepo "github.com/Hariskhan09400/x-one-boutique-1/internal/cart/repository"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/reviews/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupTestDB(t *testing.T) (ReviewRepository, func()) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := cartrepo.ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	repo := NewMongoRepository(db)
	require.NoError(t, EnsureIndexes(ctx, db))

	cleanup := func() {
		_ = db.Client().Disconnect(ctx)
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return repo, cleanup
}

func TestInsertAndGetReview(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	r, err := domain.NewReview("ts1", "u1", "asha", 4, "Soft fabric", time.Now().Truncate(time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, repo.InsertReview(ctx, r))

	got, err := repo.GetReview(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, "Soft fabric", got.Comment)
	assert.Equal(t, 4, got.Rating)
	assert.True(t, r.CreatedAt.Equal(got.CreatedAt))

	_, err = repo.GetReview(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestListByProduct_NewestFirst(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, comment := range []string{"first", "second", "third"} {
		r, err := domain.NewReview("ts1", "u1", "asha", 5, comment, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		require.NoError(t, repo.InsertReview(ctx, r))
	}
	other, err := domain.NewReview("j1", "u1", "asha", 3, "other product", base)
	require.NoError(t, err)
	require.NoError(t, repo.InsertReview(ctx, other))

	reviews, err := repo.ListByProduct(ctx, "ts1", 0)
	require.NoError(t, err)
	require.Len(t, reviews, 3)
	assert.Equal(t, "third", reviews[0].Comment)
	assert.Equal(t, "first", reviews[2].Comment)

	limited, err := repo.ListByProduct(ctx, "ts1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	empty, err := repo.ListByProduct(ctx, "none", 0)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestDeleteReview(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	r, err := domain.NewReview("ts1", "u1", "asha", 2, "Shrank", time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.InsertReview(ctx, r))

	require.NoError(t, repo.DeleteReview(ctx, r.ID))
	assert.ErrorIs(t, repo.DeleteReview(ctx, r.ID), ErrReviewNotFound)
}
