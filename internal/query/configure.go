package query

import (
	"context"

	"github.com/example/pizza-shop/internal/domain/catalog"
	"github.com/example/pizza-shop/internal/domain/selection"
	"github.com/example/pizza-shop/internal/domain/variant"
	"github.com/example/pizza-shop/internal/filter"
	"github.com/example/pizza-shop/internal/pricing"
	"github.com/shopspring/decimal"
)

// Choice is what the shopper clicked on top of the initial selection.
// Zero ids leave the resolved value untouched.
type Choice struct {
	TypeID      int
	SizeID      int
	Ingredients []int
}

// ProductView is the product detail dialog: the product, the current
// selection and everything needed to render the buttons and the price.
type ProductView struct {
	Product      catalog.Product      `json:"product"`
	Kind         catalog.Kind         `json:"kind"`
	Selection    *selection.Selection `json:"selection,omitempty"`
	Sizes        []selection.Option   `json:"sizes,omitempty"`
	Types        []selection.Option   `json:"pizza_types,omitempty"`
	Description  string               `json:"description,omitempty"`
	Price        decimal.NullDecimal  `json:"price"`
	CanAddToCart bool                 `json:"can_add_to_cart"`
	ItemID       int                  `json:"item_id,omitempty"`
}

// ConfigureProduct resolves the selection for a product the way the detail
// dialog does: start from the filter hint or the cheapest item, then apply
// the shopper's type, size and ingredient choices in that order.
func (h *Handler) ConfigureProduct(ctx context.Context, productID int, c filter.Criteria, choice Choice) (*ProductView, error) {
	p, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	kind, err := p.Kind()
	if err != nil {
		return nil, err
	}

	view := &ProductView{Product: *p, Kind: kind}
	chosen := selection.NewIngredientSet(choice.Ingredients...)

	if kind == catalog.KindSimple {
		item := p.Items[0]
		price, err := pricing.ConfiguredItemPrice(item.Price, p.Ingredients, chosen)
		if err != nil {
			return nil, err
		}
		view.Price = pricing.Price(price)
		view.CanAddToCart = true
		view.ItemID = item.ID
		return view, nil
	}

	m := variant.New(p.Items)
	sel, err := selection.Resolve(m, c.Hint())
	if err != nil {
		return nil, err
	}
	if choice.TypeID != 0 {
		sel = sel.SetType(m, choice.TypeID)
	}
	if choice.SizeID != 0 {
		sel = sel.SetSize(m, choice.SizeID)
	}
	for _, id := range chosen.IDs() {
		sel = sel.ToggleIngredient(id)
	}

	sizes, err := h.catalog.ListSizes(ctx)
	if err != nil {
		return nil, err
	}
	types, err := h.catalog.ListTypes(ctx)
	if err != nil {
		return nil, err
	}

	price, ok, err := pricing.SelectionPrice(m, sel, p.Ingredients)
	if err != nil {
		return nil, err
	}
	if ok {
		view.Price = pricing.Price(price)
	}

	view.Selection = &sel
	view.Sizes = selection.SizeOptions(m, sel, sizes)
	view.Types = selection.TypeOptions(m, sel, types)
	view.Description = selection.Describe(sel, sizes, types)
	view.CanAddToCart = sel.CanAddToCart()
	view.ItemID = sel.ItemID
	return view, nil
}
