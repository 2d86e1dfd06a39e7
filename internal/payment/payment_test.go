package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/Hariskhan09400/x-one-boutique-1/internal/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedGateway_Open(t *testing.T) {
	g := NewSimulatedGateway()

	intent, err := g.Open(context.Background(), Request{
		OrderID:     "order-1",
		AmountMinor: 250000,
		Currency:    "INR",
		Prefill:     Prefill{Email: "a@b.co", Phone: "9876543210"},
	})
	require.NoError(t, err)
	assert.Contains(t, intent.ID, "intent_")
	assert.Equal(t, "order-1", intent.OrderID)
	assert.Equal(t, int64(250000), intent.AmountMinor)
	assert.Equal(t, "9876543210", intent.Prefill.Phone)
	assert.False(t, intent.CreatedAt.IsZero())
}

func TestSimulatedGateway_RejectsBadRequests(t *testing.T) {
	g := NewSimulatedGateway()

	_, err := g.Open(context.Background(), Request{OrderID: "o", AmountMinor: 0, Currency: "INR"})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = g.Open(context.Background(), Request{OrderID: "o", AmountMinor: 100})
	assert.ErrorIs(t, err, ErrInvalidCurrency)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Open(ctx, Request{OrderID: "o", AmountMinor: 100, Currency: "INR"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSigner(t *testing.T) {
	s := NewSigner("topsecret")
	require.True(t, s.Enabled())

	sig := s.Sign("intent_1", "pay_1")
	assert.Len(t, sig, 64)
	assert.NoError(t, s.Verify("intent_1", "pay_1", sig))
	assert.ErrorIs(t, s.Verify("intent_1", "pay_2", sig), ErrSignatureMismatch)
	assert.ErrorIs(t, s.Verify("intent_1", "pay_1", "not-hex"), ErrSignatureMismatch)
	assert.ErrorIs(t, NewSigner("other").Verify("intent_1", "pay_1", sig), ErrSignatureMismatch)
}

func TestSigner_DisabledAcceptsAll(t *testing.T) {
	s := NewSigner("")
	assert.False(t, s.Enabled())
	assert.NoError(t, s.Verify("x", "y", ""))

	var nilSigner *Signer
	assert.NoError(t, nilSigner.Verify("x", "y", "z"))
}

type flakyGateway struct {
	err   error
	calls int
}

func (f *flakyGateway) Open(context.Context, Request) (*Intent, error) {
	f.calls++
	return nil, f.err
}

func TestBreakerGateway(t *testing.T) {
	down := &flakyGateway{err: errors.New("gateway timeout")}
	g := NewBreakerGateway(down, nil)

	for i := 0; i < 5; i++ {
		_, err := g.Open(context.Background(), Request{AmountMinor: 1, Currency: "INR"})
		require.Error(t, err)
	}
	_, err := g.Open(context.Background(), Request{AmountMinor: 1, Currency: "INR"})
	assert.True(t, circuitbreaker.IsOpen(err))
	assert.Equal(t, 5, down.calls)
}

func TestBreakerGateway_ValidationDoesNotTrip(t *testing.T) {
	g := NewBreakerGateway(NewSimulatedGateway(), nil)
	for i := 0; i < 10; i++ {
		_, err := g.Open(context.Background(), Request{Currency: "INR"})
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
	_, err := g.Open(context.Background(), Request{AmountMinor: 1, Currency: "INR"})
	assert.NoError(t, err)
}
