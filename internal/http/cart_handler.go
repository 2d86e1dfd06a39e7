package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	checkoutservice "github.com/Hariskhan09400/x-one-boutique-1/internal/checkout/service"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CartService interface {
	Cart(ctx context.Context, key string) (checkoutservice.CartView, error)
	AddItem(ctx context.Context, key, productID string) (checkoutservice.CartView, error)
	ChangeQuantity(ctx context.Context, key, productID string, delta int) (checkoutservice.CartView, error)
	RemoveItem(ctx context.Context, key, productID string) (checkoutservice.CartView, error)
	ClearCart(ctx context.Context, key string) (checkoutservice.CartView, error)
}

type CartHandler struct {
	cart    CartService
	timeout time.Duration
	log     *zap.Logger
}

func NewCartHandler(cart CartService, timeout time.Duration, log *zap.Logger) *CartHandler {
	return &CartHandler{
		cart:    cart,
		timeout: timeout,
		log:     logger.OrNop(log),
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
}

type ChangeQuantityRequestDTO struct {
	Delta int `json:"delta"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.cart.Cart(ctx, sessionKey(r.Context()))
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	view, err := h.cart.AddItem(ctx, sessionKey(r.Context()), req.ProductID)
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

// PATCH /api/v1/cart/items/{product_id}
func (h *CartHandler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ChangeQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	view, err := h.cart.ChangeQuantity(ctx, sessionKey(r.Context()), chi.URLParam(r, "product_id"), req.Delta)
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.cart.RemoveItem(ctx, sessionKey(r.Context()), chi.URLParam(r, "product_id"))
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// DELETE /api/v1/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.cart.ClearCart(ctx, sessionKey(r.Context()))
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}
