package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/checkout/domain"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/logger"
	orders "github.com/Hariskhan09400/x-one-boutique-1/internal/orders/service"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/payment"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CheckoutService interface {
	Checkout(ctx context.Context, key string) (domain.Draft, error)
	Open(ctx context.Context, key string) (domain.Draft, error)
	Close(ctx context.Context, key string) (domain.Draft, error)
	UpdateContact(ctx context.Context, key string, c domain.Contact) (domain.Draft, error)
	UpdateAddress(ctx context.Context, key string, a domain.Address) (domain.Draft, error)
	Advance(ctx context.Context, key string) (domain.Draft, error)
	Back(ctx context.Context, key string) (domain.Draft, error)
	Submit(ctx context.Context, key string, mode orders.PaymentMode) (*orders.Result, error)
	ResolvePayment(ctx context.Context, orderID uuid.UUID, outcome payment.Outcome) (*orders.Result, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
	timeout  time.Duration
	log      *zap.Logger
}

func NewCheckoutHandler(checkout CheckoutService, timeout time.Duration, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		timeout:  timeout,
		log:      logger.OrNop(log),
	}
}

type SubmitRequestDTO struct {
	PaymentMode string `json:"payment_mode"`
}

type PaymentCallbackDTO struct {
	OrderID    string `json:"order_id"`
	Status     string `json:"status"`
	PaymentRef string `json:"payment_ref"`
	Signature  string `json:"signature"`
}

// advanceFailure is returned when a forward move is refused; the draft shows
// the unchanged stage.
type advanceFailure struct {
	ErrorResponse
	Draft domain.Draft `json:"draft"`
}

// GET /api/v1/checkout
func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.draftOp(w, r, h.checkout.Checkout)
}

// POST /api/v1/checkout/open
func (h *CheckoutHandler) Open(w http.ResponseWriter, r *http.Request) {
	h.draftOp(w, r, h.checkout.Open)
}

// POST /api/v1/checkout/close
func (h *CheckoutHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.draftOp(w, r, h.checkout.Close)
}

// POST /api/v1/checkout/back
func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.draftOp(w, r, h.checkout.Back)
}

// PUT /api/v1/checkout/contact
func (h *CheckoutHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var c domain.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	h.draftOp(w, r, func(ctx context.Context, key string) (domain.Draft, error) {
		return h.checkout.UpdateContact(ctx, key, c)
	})
}

// PUT /api/v1/checkout/address
func (h *CheckoutHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	var a domain.Address
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	h.draftOp(w, r, func(ctx context.Context, key string) (domain.Draft, error) {
		return h.checkout.UpdateAddress(ctx, key, a)
	})
}

// POST /api/v1/checkout/advance
func (h *CheckoutHandler) Advance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	draft, err := h.checkout.Advance(ctx, sessionKey(r.Context()))
	if err == nil {
		respondJSON(w, http.StatusOK, draft)
		return
	}

	if v, ok := domain.AsValidation(err); ok {
		respondJSON(w, http.StatusUnprocessableEntity, advanceFailure{
			ErrorResponse: ErrorResponse{Error: v.Message, Code: "validation_failed", Field: string(v.Field), Reason: string(v.Reason)},
			Draft:         draft,
		})
		return
	}
	handleError(w, h.log, err)
}

// POST /api/v1/checkout/submit
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SubmitRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	res, err := h.checkout.Submit(ctx, sessionKey(r.Context()), orders.PaymentMode(req.PaymentMode))
	if err != nil {
		handleError(w, h.log, err)
		return
	}

	status := http.StatusCreated
	if res.Status == orders.StatusPaymentPending {
		status = http.StatusAccepted
	}
	respondJSON(w, status, res)
}

// POST /api/v1/payments/callback
func (h *CheckoutHandler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PaymentCallbackDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	res, err := h.checkout.ResolvePayment(ctx, orderID, payment.Outcome{
		Status:     payment.Status(req.Status),
		PaymentRef: req.PaymentRef,
		Signature:  req.Signature,
	})
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *CheckoutHandler) draftOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, key string) (domain.Draft, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	draft, err := op(ctx, sessionKey(r.Context()))
	if err != nil {
		handleError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, draft)
}
