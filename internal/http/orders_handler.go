package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/checkout/domain"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/logger"
	ordersdomain "github.com/Hariskhan09400/x-one-boutique-1/internal/orders/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OrderHistory interface {
	ListForUser(ctx context.Context, userID string) ([]*ordersdomain.Order, error)
	GetForUser(ctx context.Context, userID string, id uuid.UUID) (*ordersdomain.Order, error)
}

type OrdersHandler struct {
	orders  OrderHistory
	timeout time.Duration
	log     *zap.Logger
}

func NewOrdersHandler(orders OrderHistory, timeout time.Duration, log *zap.Logger) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
		log:     logger.OrNop(log),
	}
}

type OrdersResponse struct {
	Orders []*ordersdomain.Order `json:"orders"`
}

// GET /api/v1/orders
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user := currentUser(r.Context())
	if user == nil {
		handleError(w, h.log, domain.ErrAuthRequired)
		return
	}

	list, err := h.orders.ListForUser(ctx, user.ID)
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, OrdersResponse{Orders: list})
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user := currentUser(r.Context())
	if user == nil {
		handleError(w, h.log, domain.ErrAuthRequired)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	o, err := h.orders.GetForUser(ctx, user.ID, id)
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}
