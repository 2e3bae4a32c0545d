package selection

import (
	"fmt"

	"github.com/example/pizza-shop/internal/domain/catalog"
	"github.com/example/pizza-shop/internal/domain/variant"
)

// Option is one selectable size or type button.
type Option struct {
	ID       int    `json:"id"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
	Active   bool   `json:"active"`
}

// SizeOptions annotates every reference size. A size is disabled when the
// active type has no item for it.
func SizeOptions(m *variant.Matrix, s Selection, sizes []catalog.PizzaSize) []Option {
	options := make([]Option, 0, len(sizes))
	for _, size := range sizes {
		label := size.Label
		if label == "" {
			label = fmt.Sprintf("%d cm", size.Size)
		}
		options = append(options, Option{
			ID:       size.ID,
			Label:    label,
			Disabled: !m.IsSizeAvailable(size.ID, s.TypeID),
			Active:   size.ID == s.SizeID,
		})
	}
	return options
}

// TypeOptions annotates every reference type. A type is disabled only when
// the product has no item of that type at all; the current size is ignored.
func TypeOptions(m *variant.Matrix, s Selection, types []catalog.PizzaType) []Option {
	options := make([]Option, 0, len(types))
	for _, t := range types {
		options = append(options, Option{
			ID:       t.ID,
			Label:    t.Type,
			Disabled: !m.HasType(t.ID),
			Active:   t.ID == s.TypeID,
		})
	}
	return options
}
