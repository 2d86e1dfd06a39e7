package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is catalog reference data. A cart snapshots the price at add time,
// so later price changes here never reach lines already in a cart.
type Product struct {
	ID            string
	Name          string
	Category      string
	Description   string
	Price         decimal.Decimal
	OriginalPrice decimal.NullDecimal
	Images        []string
	CreatedAt     time.Time
}

// PrimaryImage returns the first image or "".
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// DiscountPercent is the rounded saving against OriginalPrice, 0 when there is none.
func (p Product) DiscountPercent() int {
	if !p.OriginalPrice.Valid || !p.OriginalPrice.Decimal.GreaterThan(p.Price) {
		return 0
	}
	saving := p.OriginalPrice.Decimal.Sub(p.Price)
	return int(saving.Div(p.OriginalPrice.Decimal).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}
