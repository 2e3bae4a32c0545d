// Package selection holds the per-session pizza choice: dough type, size
// and add-on ingredients. Every transition returns a new Selection.
package selection

import (
	"fmt"
	"slices"

	"github.com/example/pizza-shop/internal/domain/catalog"
	"github.com/example/pizza-shop/internal/domain/variant"
)

// Hint carries the type and size ids of an active catalog filter, in
// filter order. Empty means unset.
type Hint struct {
	TypeIDs []int
	SizeIDs []int
}

// Selection is a value; the zero SizeID or ItemID means "none".
type Selection struct {
	TypeID      int           `json:"type_id"`
	SizeID      int           `json:"size_id,omitempty"`
	ItemID      int           `json:"item_id,omitempty"`
	Ingredients IngredientSet `json:"ingredients"`
}

// Resolve picks the initial selection. The first hinted combination that
// names an existing item wins, trying types then sizes in filter order;
// otherwise the cheapest item is used.
func Resolve(m *variant.Matrix, hint Hint) (Selection, error) {
	picked, ok := hinted(m, hint)
	if !ok {
		cheapest, err := m.CheapestItem()
		if err != nil {
			return Selection{}, err
		}
		picked = cheapest
	}

	return Selection{
		TypeID: picked.Type(),
		SizeID: picked.Size(),
		ItemID: picked.ID,
	}, nil
}

func hinted(m *variant.Matrix, hint Hint) (catalog.ProductItem, bool) {
	switch {
	case len(hint.TypeIDs) > 0 && len(hint.SizeIDs) > 0:
		for _, typeID := range hint.TypeIDs {
			for _, sizeID := range hint.SizeIDs {
				if item, ok := m.FindItem(sizeID, typeID); ok {
					return item, true
				}
			}
		}
	case len(hint.SizeIDs) > 0:
		for _, sizeID := range hint.SizeIDs {
			if item, ok := m.FirstWithSize(sizeID); ok {
				return item, true
			}
		}
	case len(hint.TypeIDs) > 0:
		for _, typeID := range hint.TypeIDs {
			if item, ok := m.FirstWithType(typeID); ok {
				return item, true
			}
		}
	}
	return catalog.ProductItem{}, false
}

// SetType switches the dough type. The current size is kept when the new
// type offers it, otherwise the first offered size is taken. A type with no
// sizes leaves the selection without a purchasable item.
func (s Selection) SetType(m *variant.Matrix, typeID int) Selection {
	sizes := m.AvailableSizesForType(typeID)

	s.TypeID = typeID
	switch {
	case slices.Contains(sizes, s.SizeID):
	case len(sizes) > 0:
		s.SizeID = sizes[0]
	default:
		s.SizeID = 0
	}
	return s.withItem(m)
}

// SetSize replaces the size and never touches the type.
func (s Selection) SetSize(m *variant.Matrix, sizeID int) Selection {
	s.SizeID = sizeID
	return s.withItem(m)
}

// ToggleIngredient adds or removes an add-on. Ids are not validated here.
func (s Selection) ToggleIngredient(id int) Selection {
	s.Ingredients = s.Ingredients.Toggle(id)
	return s
}

// Item returns the selected product item. false means the current
// combination cannot be bought.
func (s Selection) Item(m *variant.Matrix) (catalog.ProductItem, bool) {
	if s.SizeID == 0 {
		return catalog.ProductItem{}, false
	}
	return m.FindItem(s.SizeID, s.TypeID)
}

// CanAddToCart reports whether a purchasable item is selected.
func (s Selection) CanAddToCart() bool {
	return s.ItemID != 0
}

func (s Selection) withItem(m *variant.Matrix) Selection {
	s.ItemID = 0
	if item, ok := s.Item(m); ok {
		s.ItemID = item.ID
	}
	return s
}

// Describe renders the short summary shown under the product title,
// e.g. "30 cm, thin dough, 2 ingredients". A size missing from sizes is
// reported as unavailable.
func Describe(s Selection, sizes []catalog.PizzaSize, types []catalog.PizzaType) string {
	sizeText := "size unavailable"
	for _, size := range sizes {
		if size.ID == s.SizeID {
			sizeText = fmt.Sprintf("%d cm", size.Size)
			break
		}
	}

	typeText := ""
	for _, t := range types {
		if t.ID == s.TypeID {
			typeText = t.Type
			break
		}
	}

	text := sizeText
	if typeText != "" {
		text += ", " + typeText + " dough"
	}
	switch n := s.Ingredients.Len(); n {
	case 0:
	case 1:
		text += ", 1 ingredient"
	default:
		text += fmt.Sprintf(", %d ingredients", n)
	}
	return text
}
