package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Places is the number of decimal places every amount is expressed in.
const Places = 2

var ErrInvalidAmount = errors.New("amount must be a non-negative value with at most 2 decimal places")

// Sum adds amounts exactly. No rounding is applied.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Round rounds to 2 decimal places, half-up.
// Amounts are never negative, so half-away-from-zero is half-up here.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Format renders an amount with exactly 2 decimal places.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}

// Parse parses a currency amount, rejecting negatives and sub-cent precision.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() || !d.Equal(d.Round(Places)) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}
