package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/auth"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/logger"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/reviews/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReviewService interface {
	Post(ctx context.Context, user *auth.User, productID string, rating int, comment string) (*domain.Review, error)
	List(ctx context.Context, productID string) ([]*domain.Review, error)
	Delete(ctx context.Context, user *auth.User, id uuid.UUID) error
}

type ReviewHandler struct {
	reviews ReviewService
	timeout time.Duration
	log     *zap.Logger
}

func NewReviewHandler(reviews ReviewService, timeout time.Duration, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviews: reviews,
		timeout: timeout,
		log:     logger.OrNop(log),
	}
}

type PostReviewRequestDTO struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type ReviewsResponse struct {
	Reviews []*domain.Review `json:"reviews"`
}

// GET /api/v1/products/{product_id}/reviews
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	list, err := h.reviews.List(ctx, chi.URLParam(r, "product_id"))
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, ReviewsResponse{Reviews: list})
}

// POST /api/v1/products/{product_id}/reviews
func (h *ReviewHandler) Post(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PostReviewRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	review, err := h.reviews.Post(ctx, currentUser(r.Context()), chi.URLParam(r, "product_id"), req.Rating, req.Comment)
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, review)
}

// DELETE /api/v1/reviews/{review_id}
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := uuid.Parse(chi.URLParam(r, "review_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_review_id", "review_id must be a UUID")
		return
	}

	if err := h.reviews.Delete(ctx, currentUser(r.Context()), id); err != nil {
		handleError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
