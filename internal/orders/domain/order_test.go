package domain

import (
	"testing"
	"time"

	cart "github.com/Hariskhan09400/x-one-boutique-1/internal/cart/domain"
	checkout "github.com/Hariskhan09400/x-one-boutique-1/internal/checkout/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionTo(t *testing.T) {
	assert.True(t, CanTransitionTo(PaymentModeOnlineAwaiting, PaymentModeOnlinePaid))

	assert.False(t, CanTransitionTo(PaymentModeOnlineAwaiting, PaymentModeCashOnDelivery))
	assert.False(t, CanTransitionTo(PaymentModeOnlinePaid, PaymentModeOnlineAwaiting))
	assert.False(t, CanTransitionTo(PaymentModeOnlinePaid, PaymentModeOnlinePaid))
	assert.False(t, CanTransitionTo(PaymentModeCashOnDelivery, PaymentModeOnlinePaid))
}

func TestPaymentMode(t *testing.T) {
	assert.True(t, PaymentModeCashOnDelivery.IsValid())
	assert.False(t, PaymentMode("CARD").IsValid())
	assert.True(t, PaymentModeOnlinePaid.IsTerminal())
	assert.False(t, PaymentModeOnlineAwaiting.IsTerminal())
}

func TestNewOrder_SnapshotsCartAndDraft(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	lines := []cart.Line{
		{ProductID: "tee", Name: "Tee", UnitPrice: decimal.NewFromInt(600), Quantity: 2},
		{ProductID: "jeans", Name: "Jeans", UnitPrice: decimal.NewFromInt(1300), Quantity: 1},
	}
	draft := checkout.Draft{
		Stage:   checkout.StageAddress,
		Contact: checkout.Contact{Phone: "9876543210", Email: "a@b.co"},
		Address: checkout.Address{City: "Pune"},
	}

	o := NewOrder("u1", lines, draft, PaymentModeCashOnDelivery, now)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, "2500", o.TotalAmount.String())
	assert.Equal(t, 3, o.ItemCount())
	assert.Equal(t, "INR", o.Currency)
	assert.Equal(t, "Pune", o.Address.City)
	assert.Equal(t, now, o.CreatedAt)
	require.Len(t, o.Lines, 2)

	// later cart changes do not leak into the order
	lines[0].Quantity = 9
	assert.Equal(t, 2, o.Lines[0].Quantity)
}

func TestClone(t *testing.T) {
	o := &Order{Lines: []Line{{ProductID: "a", Quantity: 1}}}
	c := o.Clone()
	c.Lines[0].Quantity = 5
	c.PaymentRef = "x"

	assert.Equal(t, 1, o.Lines[0].Quantity)
	assert.Empty(t, o.PaymentRef)
}
