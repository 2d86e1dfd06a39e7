package repository

import (
	"context"
	"errors"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/reviews/domain"
	"github.com/google/uuid"
)

var ErrReviewNotFound = errors.New("review not found")

type ReviewRepository interface {
	InsertReview(ctx context.Context, r *domain.Review) error
	GetReview(ctx context.Context, id uuid.UUID) (*domain.Review, error)
	// ListByProduct returns the product's reviews newest first.
	ListByProduct(ctx context.Context, productID string, limit int64) ([]*domain.Review, error)
	DeleteReview(ctx context.Context, id uuid.UUID) error
}
