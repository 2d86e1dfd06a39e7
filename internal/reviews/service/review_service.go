package service

import (
	"context"
	"errors"
	"time"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/auth"
	catalog "github.com/Hariskhan09400/x-one-boutique-1/internal/catalog/domain"
	checkout "github.com/Hariskhan09400/x-one-boutique-1/internal/checkout/domain"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/logger"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/reviews/domain"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/reviews/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultListLimit = 50

var (
	ErrReviewNotFound = errors.New("review not found")
	ErrNotOwner       = errors.New("review belongs to another user")
)

type Catalog interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
}

type ReviewService struct {
	repo    repository.ReviewRepository
	catalog Catalog
	log     *zap.Logger
	now     func() time.Time
}

// NewReviewService builds the service. catalog may be nil, in which case
// product ids are not checked.
func NewReviewService(repo repository.ReviewRepository, catalog Catalog, log *zap.Logger) *ReviewService {
	return &ReviewService{
		repo:    repo,
		catalog: catalog,
		log:     logger.OrNop(log),
		now:     time.Now,
	}
}

// Post stores a review by the given user. The username shown with it is the
// user's display name at posting time.
func (s *ReviewService) Post(ctx context.Context, user *auth.User, productID string, rating int, comment string) (*domain.Review, error) {
	if user == nil || user.ID == "" {
		return nil, checkout.ErrAuthRequired
	}
	if s.catalog != nil {
		if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
			return nil, err
		}
	}

	r, err := domain.NewReview(productID, user.ID, user.DisplayName(), rating, comment, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.InsertReview(ctx, r); err != nil {
		return nil, err
	}

	s.log.Debug("review posted", zap.String("review_id", r.ID.String()), zap.String("product_id", productID))
	return r, nil
}

func (s *ReviewService) List(ctx context.Context, productID string) ([]*domain.Review, error) {
	reviews, err := s.repo.ListByProduct(ctx, productID, DefaultListLimit)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []*domain.Review{}
	}
	return reviews, nil
}

// Delete removes a review written by user.
func (s *ReviewService) Delete(ctx context.Context, user *auth.User, id uuid.UUID) error {
	if user == nil || user.ID == "" {
		return checkout.ErrAuthRequired
	}

	r, err := s.repo.GetReview(ctx, id)
	if errors.Is(err, repository.ErrReviewNotFound) {
		return ErrReviewNotFound
	}
	if err != nil {
		return err
	}
	if r.UserID != user.ID {
		return ErrNotOwner
	}

	err = s.repo.DeleteReview(ctx, id)
	if errors.Is(err, repository.ErrReviewNotFound) {
		return ErrReviewNotFound
	}
	return err
}
