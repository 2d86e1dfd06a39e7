package http

import (
	"encoding/json"
	"errors"
	"net/http"

	catalogservice "github.com/Hariskhan09400/x-one-boutique-1/internal/catalog/service"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/checkout/domain"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/circuitbreaker"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/logger"
	orders "github.com/Hariskhan09400/x-one-boutique-1/internal/orders/service"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/payment"
	reviewdomain "github.com/Hariskhan09400/x-one-boutique-1/internal/reviews/domain"
	reviews "github.com/Hariskhan09400/x-one-boutique-1/internal/reviews/service"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
	Field   string `json:"field,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Get().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError converts service errors to HTTP status codes.
func handleError(w http.ResponseWriter, log *zap.Logger, err error) {
	if v, ok := domain.AsValidation(err); ok {
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:  v.Message,
			Code:   "validation_failed",
			Field:  string(v.Field),
			Reason: string(v.Reason),
		})
		return
	}

	if p, ok := domain.AsPersistence(err); ok {
		if p.IsEscalation() {
			respondJSON(w, http.StatusInternalServerError, ErrorResponse{
				Error:   "payment received but the order could not be updated",
				Code:    "payment_reconciliation_required",
				Details: p.OrderID,
			})
			return
		}
		respondError(w, http.StatusServiceUnavailable, "order_not_saved", "order could not be saved, please retry")
		return
	}

	var (
		status  int
		code    string
		message = err.Error()
	)

	switch {
	case errors.Is(err, domain.ErrAuthRequired):
		status, code = http.StatusUnauthorized, "auth_required"
	case errors.Is(err, domain.ErrEmptyCart):
		status, code = http.StatusConflict, "empty_cart"
	case errors.Is(err, domain.ErrStageNotReady), errors.Is(err, domain.ErrNoNextStage):
		status, code = http.StatusConflict, "invalid_stage"
	case errors.Is(err, domain.ErrSubmissionInProgress):
		status, code = http.StatusConflict, "submission_in_progress"
	case errors.Is(err, domain.ErrInvalidPaymentMode):
		status, code = http.StatusBadRequest, "invalid_payment_mode"
	case errors.Is(err, domain.ErrUnknownPayment):
		status, code = http.StatusNotFound, "unknown_payment"
	case errors.Is(err, domain.ErrMissingPaymentRef), errors.Is(err, orders.ErrInvalidOutcome):
		status, code = http.StatusBadRequest, "invalid_outcome"
	case errors.Is(err, payment.ErrSignatureMismatch):
		status, code = http.StatusBadRequest, "invalid_signature"
	case errors.Is(err, orders.ErrGatewayUnavailable):
		status, code = http.StatusBadGateway, "payment_gateway_unavailable"
	case circuitbreaker.IsOpen(err):
		status, code = http.StatusServiceUnavailable, "service_unavailable"
	case errors.Is(err, catalogservice.ErrProductNotFound):
		status, code = http.StatusNotFound, "product_not_found"
	case errors.Is(err, catalogservice.ErrInvalidSort):
		status, code = http.StatusBadRequest, "invalid_sort"
	case errors.Is(err, orders.ErrOrderNotFound):
		status, code = http.StatusNotFound, "order_not_found"
	case errors.Is(err, reviews.ErrReviewNotFound):
		status, code = http.StatusNotFound, "review_not_found"
	case errors.Is(err, reviews.ErrNotOwner):
		status, code = http.StatusForbidden, "permission_denied"
	case reviewdomain.IsValidationError(err):
		status, code = http.StatusUnprocessableEntity, "invalid_review"
	default:
		log.Error("request failed", zap.Error(err))
		status, code, message = http.StatusInternalServerError, "internal_error", "internal server error"
	}

	respondError(w, status, code, message)
}
