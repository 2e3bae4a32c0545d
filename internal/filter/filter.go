// Package filter maps catalog filter criteria to and from flat query
// parameters and checks products against them.
package filter

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/example/pizza-shop/internal/domain/catalog"
	"github.com/example/pizza-shop/internal/domain/selection"
	"github.com/shopspring/decimal"
)

// Query parameter names.
const (
	KeySizes       = "sizes"
	KeyPizzaTypes  = "pizzaTypes"
	KeyIngredients = "ingredients"
	KeyPriceFrom   = "priceFrom"
	KeyPriceTo     = "priceTo"
)

var (
	DefaultPriceFrom = decimal.Zero
	DefaultPriceTo   = decimal.NewFromInt(1000)
)

// Criteria is the active catalog filter. Id slices are ordered sets.
type Criteria struct {
	SizeIDs       []int           `json:"sizes"`
	TypeIDs       []int           `json:"pizza_types"`
	IngredientIDs []int           `json:"ingredients"`
	PriceFrom     decimal.Decimal `json:"price_from"`
	PriceTo       decimal.Decimal `json:"price_to"`
}

// Default returns criteria with no id filters and default price bounds.
func Default() Criteria {
	return Criteria{PriceFrom: DefaultPriceFrom, PriceTo: DefaultPriceTo}
}

// Hint derives the initial pizza selection hint from the filter.
func (c Criteria) Hint() selection.Hint {
	return selection.Hint{
		TypeIDs: slices.Clone(c.TypeIDs),
		SizeIDs: slices.Clone(c.SizeIDs),
	}
}

// ToQuery flattens criteria. Empty sets and default price bounds are omitted.
func ToQuery(c Criteria) map[string]string {
	q := make(map[string]string)
	if len(c.SizeIDs) > 0 {
		q[KeySizes] = joinIDs(c.SizeIDs)
	}
	if len(c.TypeIDs) > 0 {
		q[KeyPizzaTypes] = joinIDs(c.TypeIDs)
	}
	if len(c.IngredientIDs) > 0 {
		q[KeyIngredients] = joinIDs(c.IngredientIDs)
	}
	if !c.PriceFrom.Equal(DefaultPriceFrom) {
		q[KeyPriceFrom] = c.PriceFrom.String()
	}
	if !c.PriceTo.Equal(DefaultPriceTo) {
		q[KeyPriceTo] = c.PriceTo.String()
	}
	return q
}

// FromQuery is the inverse of ToQuery. It never fails: malformed ids are
// dropped and malformed prices fall back to the default bound.
func FromQuery(q map[string]string) Criteria {
	return Criteria{
		SizeIDs:       parseIDs(q[KeySizes]),
		TypeIDs:       parseIDs(q[KeyPizzaTypes]),
		IngredientIDs: parseIDs(q[KeyIngredients]),
		PriceFrom:     parsePrice(q[KeyPriceFrom], DefaultPriceFrom),
		PriceTo:       parsePrice(q[KeyPriceTo], DefaultPriceTo),
	}
}

// FromValues reads criteria from URL values. Repeated keys are merged.
func FromValues(v url.Values) Criteria {
	flat := make(map[string]string, len(v))
	for _, key := range []string{KeySizes, KeyPizzaTypes, KeyIngredients, KeyPriceFrom, KeyPriceTo} {
		if vals, ok := v[key]; ok && len(vals) > 0 {
			if key == KeyPriceFrom || key == KeyPriceTo {
				flat[key] = vals[0]
				continue
			}
			flat[key] = strings.Join(vals, ",")
		}
	}
	return FromQuery(flat)
}

// Values encodes criteria as URL values.
func (c Criteria) Values() url.Values {
	v := url.Values{}
	for key, val := range ToQuery(c) {
		v.Set(key, val)
	}
	return v
}

// Matches applies every clause; a product failing any one of them is out.
// Within the size and type clauses one matching item is enough.
func Matches(p catalog.Product, c Criteria) bool {
	if len(c.IngredientIDs) > 0 {
		have := make(map[int]struct{}, len(p.Ingredients))
		for _, ing := range p.Ingredients {
			have[ing.ID] = struct{}{}
		}
		for _, id := range c.IngredientIDs {
			if _, ok := have[id]; !ok {
				return false
			}
		}
	}

	inRange := false
	for _, item := range p.Items {
		if !item.Price.LessThan(c.PriceFrom) && !item.Price.GreaterThan(c.PriceTo) {
			inRange = true
			break
		}
	}
	if !inRange {
		return false
	}

	if len(c.SizeIDs) > 0 && !anyItem(p.Items, func(i catalog.ProductItem) bool {
		return i.SizeID != nil && slices.Contains(c.SizeIDs, *i.SizeID)
	}) {
		return false
	}

	if len(c.TypeIDs) > 0 && !anyItem(p.Items, func(i catalog.ProductItem) bool {
		return i.TypeID != nil && slices.Contains(c.TypeIDs, *i.TypeID)
	}) {
		return false
	}

	return true
}

// Apply keeps the products of each category that match, dropping
// categories left empty.
func Apply(categories []catalog.Category, c Criteria) []catalog.Category {
	out := make([]catalog.Category, 0, len(categories))
	for _, cat := range categories {
		products := make([]catalog.Product, 0, len(cat.Products))
		for _, p := range cat.Products {
			if Matches(p, c) {
				products = append(products, p)
			}
		}
		if len(products) == 0 {
			continue
		}
		cat.Products = products
		out = append(out, cat)
	}
	return out
}

func anyItem(items []catalog.ProductItem, pred func(catalog.ProductItem) bool) bool {
	return slices.ContainsFunc(items, pred)
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

func parseIDs(raw string) []int {
	if raw == "" {
		return nil
	}
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || id <= 0 || slices.Contains(ids, id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func parsePrice(raw string, fallback decimal.Decimal) decimal.Decimal {
	if raw == "" {
		return fallback
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || d.IsNegative() {
		return fallback
	}
	return d
}
