package domain

import (
	"time"

	cart "github.com/Hariskhan09400/x-one-boutique-1/internal/cart/domain"
	checkout "github.com/Hariskhan09400/x-one-boutique-1/internal/checkout/domain"
	"github.com/Hariskhan09400/x-one-boutique-1/internal/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMode string

const (
	PaymentModeOnlineAwaiting PaymentMode = "ONLINE_AWAITING"
	PaymentModeOnlinePaid     PaymentMode = "ONLINE_PAID"
	PaymentModeCashOnDelivery PaymentMode = "CASH_ON_DELIVERY"
)

var validTransitions = map[PaymentMode][]PaymentMode{
	PaymentModeOnlineAwaiting: {PaymentModeOnlinePaid},
}

// CanTransitionTo reports whether an order may move from one payment mode to another.
// Only a placeholder awaiting online payment can change, and only to paid.
func CanTransitionTo(from, to PaymentMode) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (m PaymentMode) IsValid() bool {
	switch m {
	case PaymentModeOnlineAwaiting, PaymentModeOnlinePaid, PaymentModeCashOnDelivery:
		return true
	}
	return false
}

func (m PaymentMode) IsTerminal() bool {
	return m == PaymentModeOnlinePaid || m == PaymentModeCashOnDelivery
}

// String representation (for logging)
func (m PaymentMode) String() string {
	return string(m)
}

type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

func (l Line) Subtotal() decimal.Decimal {
	return money.LineTotal(l.UnitPrice, l.Quantity)
}

type Order struct {
	ID          uuid.UUID        `json:"id"`
	UserID      string           `json:"user_id"`
	Lines       []Line           `json:"lines"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	Currency    string           `json:"currency"`
	Contact     checkout.Contact `json:"contact"`
	Address     checkout.Address `json:"address"`
	PaymentMode PaymentMode      `json:"payment_mode"`
	PaymentRef  string           `json:"payment_ref,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NewOrder snapshots the cart lines and the draft's contact and address.
// The total is recomputed from the snapshot so it always matches the stored lines.
func NewOrder(userID string, lines []cart.Line, draft checkout.Draft, mode PaymentMode, now time.Time) *Order {
	o := &Order{
		ID:          uuid.New(),
		UserID:      userID,
		Lines:       make([]Line, 0, len(lines)),
		Currency:    money.Currency,
		Contact:     draft.Contact,
		Address:     draft.Address,
		PaymentMode: mode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	subtotals := make([]decimal.Decimal, 0, len(lines))
	for _, l := range lines {
		line := Line{
			ProductID: l.ProductID,
			Name:      l.Name,
			ImageURL:  l.ImageURL,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		}
		o.Lines = append(o.Lines, line)
		subtotals = append(subtotals, line.Subtotal())
	}
	o.TotalAmount = money.Sum(subtotals...)
	return o
}

func (o *Order) ItemCount() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// Clone returns a deep copy.
func (o *Order) Clone() *Order {
	c := *o
	c.Lines = append([]Line(nil), o.Lines...)
	return &c
}
