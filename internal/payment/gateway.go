// Package payment models the external payment collector: the storefront opens
// a payment intent for an order and later receives the customer's outcome.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/circuitbreaker"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

var (
	ErrInvalidAmount   = errors.New("payment amount must be positive")
	ErrInvalidCurrency = errors.New("payment currency is required")
)

type Prefill struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"contact,omitempty"`
}

type Request struct {
	OrderID     string
	AmountMinor int64
	Currency    string
	Description string
	Prefill     Prefill
}

// Intent is what the client needs to show the gateway's payment popup.
type Intent struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"order_id"`
	AmountMinor int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Description string    `json:"description,omitempty"`
	Prefill     Prefill   `json:"prefill"`
	CreatedAt   time.Time `json:"created_at"`
}

type Status string

const (
	StatusSucceeded Status = "SUCCEEDED"
	StatusDismissed Status = "DISMISSED"
)

func (s Status) IsValid() bool {
	return s == StatusSucceeded || s == StatusDismissed
}

// Outcome is what the gateway reports once the customer finishes with the popup.
type Outcome struct {
	Status     Status `json:"status"`
	PaymentRef string `json:"payment_ref,omitempty"`
	Signature  string `json:"signature,omitempty"`
}

func Succeeded(paymentRef string) Outcome {
	return Outcome{Status: StatusSucceeded, PaymentRef: paymentRef}
}

func Dismissed() Outcome {
	return Outcome{Status: StatusDismissed}
}

// Gateway opens payment intents. Completion arrives later as an Outcome.
type Gateway interface {
	Open(ctx context.Context, req Request) (*Intent, error)
}

func validate(req Request) error {
	if req.AmountMinor <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(req.Currency) == "" {
		return ErrInvalidCurrency
	}
	return nil
}

// SimulatedGateway issues intents locally. The outcome is delivered through the
// payment callback endpoint, as a hosted checkout would.
type SimulatedGateway struct {
	now func() time.Time
}

func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{now: time.Now}
}

func (g *SimulatedGateway) Open(ctx context.Context, req Request) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	return &Intent{
		ID:          fmt.Sprintf("intent_%s", strings.ReplaceAll(uuid.NewString(), "-", "")[:14]),
		OrderID:     req.OrderID,
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
		Description: req.Description,
		Prefill:     req.Prefill,
		CreatedAt:   g.now(),
	}, nil
}

// BreakerGateway fails fast while the wrapped gateway keeps erroring.
type BreakerGateway struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker[*Intent]
}

func NewBreakerGateway(next Gateway, log *zap.Logger) *BreakerGateway {
	s := circuitbreaker.DefaultSettings("payment-gateway")
	s.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, ErrInvalidAmount) || errors.Is(err, ErrInvalidCurrency)
	}
	return &BreakerGateway{next: next, cb: circuitbreaker.New[*Intent](s, log)}
}

func (b *BreakerGateway) Open(ctx context.Context, req Request) (*Intent, error) {
	return b.cb.Execute(func() (*Intent, error) {
		return b.next.Open(ctx, req)
	})
}
