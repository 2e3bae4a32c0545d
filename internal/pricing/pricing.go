// Package pricing computes configured item prices, cart line totals and
// checkout totals with exact decimal arithmetic. Amounts are only rounded
// when converted for output.
package pricing

import (
	"errors"
	"fmt"

	"github.com/example/pizza-shop/internal/domain/catalog"
	"github.com/example/pizza-shop/internal/domain/selection"
	"github.com/example/pizza-shop/internal/domain/variant"
	"github.com/example/pizza-shop/internal/money"
	"github.com/shopspring/decimal"
)

// DefaultDeliveryFee is used when the deployment does not configure one.
var DefaultDeliveryFee = decimal.NewFromInt(250)

var (
	ErrMissingPrice    = errors.New("price is missing")
	ErrNegativePrice   = errors.New("price must not be negative")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// IngredientPrice is one frozen add-on of a cart line.
type IngredientPrice struct {
	ID    int                 `json:"id"`
	Price decimal.NullDecimal `json:"price"`
}

// Line is the pricing view of a cart row: the item price and add-ons as
// they were when the row was created.
type Line struct {
	ItemPrice   decimal.NullDecimal `json:"item_price"`
	Ingredients []IngredientPrice   `json:"ingredients"`
	Quantity    int                 `json:"quantity"`
}

// Totals is the checkout breakdown.
type Totals struct {
	Items    decimal.Decimal `json:"items"`
	Delivery decimal.Decimal `json:"delivery"`
	Total    decimal.Decimal `json:"total"`
}

// ConfiguredItemPrice is base plus the price of every ingredient whose id is
// selected. Selected ids that are not in ingredients add nothing.
func ConfiguredItemPrice(base decimal.Decimal, ingredients []catalog.Ingredient, selected selection.IngredientSet) (decimal.Decimal, error) {
	if base.IsNegative() {
		return decimal.Zero, fmt.Errorf("base price: %w", ErrNegativePrice)
	}
	total := base
	for _, ing := range ingredients {
		if !selected.Has(ing.ID) {
			continue
		}
		if ing.Price.IsNegative() {
			return decimal.Zero, fmt.Errorf("ingredient %d: %w", ing.ID, ErrNegativePrice)
		}
		total = total.Add(ing.Price)
	}
	return total, nil
}

// SelectionPrice prices the current selection of a configurable product.
// The bool is false when the selection has no purchasable item.
func SelectionPrice(m *variant.Matrix, sel selection.Selection, ingredients []catalog.Ingredient) (decimal.Decimal, bool, error) {
	item, ok := sel.Item(m)
	if !ok {
		return decimal.Zero, false, nil
	}
	price, err := ConfiguredItemPrice(item.Price, ingredients, sel.Ingredients)
	if err != nil {
		return decimal.Zero, false, err
	}
	return price, true, nil
}

// CartLineTotal is (item price + ingredient prices) × quantity.
func CartLineTotal(line Line) (decimal.Decimal, error) {
	unit, err := UnitPrice(line)
	if err != nil {
		return decimal.Zero, err
	}
	if line.Quantity < 1 {
		return decimal.Zero, fmt.Errorf("%w: %d", ErrInvalidQuantity, line.Quantity)
	}
	return unit.Mul(decimal.NewFromInt(int64(line.Quantity))), nil
}

// UnitPrice is the item price plus its add-ons, for one unit.
func UnitPrice(line Line) (decimal.Decimal, error) {
	base, err := required(line.ItemPrice, "item price")
	if err != nil {
		return decimal.Zero, err
	}
	prices := []decimal.Decimal{base}
	for _, ing := range line.Ingredients {
		p, err := required(ing.Price, fmt.Sprintf("ingredient %d", ing.ID))
		if err != nil {
			return decimal.Zero, err
		}
		prices = append(prices, p)
	}
	return money.Sum(prices...), nil
}

func required(p decimal.NullDecimal, what string) (decimal.Decimal, error) {
	if !p.Valid {
		return decimal.Zero, fmt.Errorf("%s: %w", what, ErrMissingPrice)
	}
	if p.Decimal.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s: %w", what, ErrNegativePrice)
	}
	return p.Decimal, nil
}

// CartDisplayTotal sums line totals. It never includes delivery; an empty
// cart totals zero.
func CartDisplayTotal(lines []Line) (decimal.Decimal, error) {
	total := decimal.Zero
	for i, line := range lines {
		lt, err := CartLineTotal(line)
		if err != nil {
			return decimal.Zero, fmt.Errorf("line %d: %w", i, err)
		}
		total = total.Add(lt)
	}
	return total, nil
}

// CheckoutTotal is the display total plus the delivery fee.
func CheckoutTotal(lines []Line, deliveryFee decimal.Decimal) (decimal.Decimal, error) {
	totals, err := Breakdown(lines, deliveryFee)
	if err != nil {
		return decimal.Zero, err
	}
	return totals.Total, nil
}

// Breakdown returns items, delivery and grand total for checkout.
func Breakdown(lines []Line, deliveryFee decimal.Decimal) (Totals, error) {
	if deliveryFee.IsNegative() {
		return Totals{}, fmt.Errorf("delivery fee: %w", ErrNegativePrice)
	}
	items, err := CartDisplayTotal(lines)
	if err != nil {
		return Totals{}, err
	}
	return Totals{
		Items:    items,
		Delivery: deliveryFee,
		Total:    items.Add(deliveryFee),
	}, nil
}

// Price wraps a present amount for Line fields.
func Price(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(d)
}
