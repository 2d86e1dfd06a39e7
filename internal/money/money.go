// Package money holds the price arithmetic shared by the cart, orders and payment code.
// All amounts are decimal rupees; minor units (paise) are only used at the gateway boundary.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	Currency      = "INR"
	Symbol        = "₹"
	minorExponent = 2
)

// LineTotal is unitPrice × quantity. Non-positive quantities yield zero.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	if quantity <= 0 {
		return decimal.Zero
	}
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Round rounds half away from zero to paise.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(minorExponent)
}

// ToMinorUnits converts rupees to paise, the unit payment gateways charge in.
func ToMinorUnits(d decimal.Decimal) int64 {
	return Round(d).Shift(minorExponent).IntPart()
}

func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -minorExponent)
}

// Parse reads a price such as "599" or "1299.50". Negative prices are rejected.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid amount %q: negative", s)
	}
	return d, nil
}

// Format renders an amount for people: whole rupees without decimals, otherwise two places.
func Format(d decimal.Decimal) string {
	r := Round(d)
	if r.Equal(r.Truncate(0)) {
		return Symbol + r.StringFixed(0)
	}
	return Symbol + r.StringFixed(minorExponent)
}
