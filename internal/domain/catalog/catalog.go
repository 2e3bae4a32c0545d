package catalog

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNoItems              = errors.New("product has no items")
	ErrMixedItems           = errors.New("product mixes simple and configurable items")
	ErrDuplicateVariant     = errors.New("product has duplicate size/type combination")
	ErrInvalidSimpleProduct = errors.New("simple product must have exactly one item")
	ErrProductNotFound      = errors.New("product not found")
	ErrProductItemNotFound  = errors.New("product item not found")
)

// Kind distinguishes plain products from pizzas that need a size/type choice.
type Kind string

const (
	KindSimple       Kind = "simple"
	KindConfigurable Kind = "configurable"
)

type Ingredient struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	ImageURL string          `json:"image_url,omitempty"`
	Price    decimal.Decimal `json:"price"`
}

type PizzaSize struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Size  int    `json:"size"`
}

type PizzaType struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
}

// ProductItem is a priced SKU. Simple products carry a single item with
// neither size nor type; pizza items carry both.
type ProductItem struct {
	ID        int             `json:"id"`
	ProductID int             `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
	SizeID    *int            `json:"size_id,omitempty"`
	TypeID    *int            `json:"type_id,omitempty"`
}

// IsVariant reports whether the item is tagged with a size or a type.
func (i ProductItem) IsVariant() bool {
	return i.SizeID != nil || i.TypeID != nil
}

// Size returns the size id, or 0 when the item has none.
func (i ProductItem) Size() int {
	if i.SizeID == nil {
		return 0
	}
	return *i.SizeID
}

// Type returns the type id, or 0 when the item has none.
func (i ProductItem) Type() int {
	if i.TypeID == nil {
		return 0
	}
	return *i.TypeID
}

type Product struct {
	ID          int           `json:"id"`
	Name        string        `json:"name"`
	ImageURL    string        `json:"image_url"`
	CategoryID  int           `json:"category_id"`
	Items       []ProductItem `json:"items"`
	Ingredients []Ingredient  `json:"ingredients"`
}

type Category struct {
	ID       int       `json:"id"`
	Name     string    `json:"name"`
	Products []Product `json:"products"`
}

// Kind classifies the product once and validates the item invariants for
// that kind. Any violation is an upstream catalog defect.
func (p Product) Kind() (Kind, error) {
	if len(p.Items) == 0 {
		return "", fmt.Errorf("product %d: %w", p.ID, ErrNoItems)
	}

	variants := 0
	for _, item := range p.Items {
		if item.IsVariant() {
			variants++
		}
	}

	if variants == 0 {
		if len(p.Items) != 1 {
			return "", fmt.Errorf("product %d: %w", p.ID, ErrInvalidSimpleProduct)
		}
		return KindSimple, nil
	}
	if variants != len(p.Items) {
		return "", fmt.Errorf("product %d: %w", p.ID, ErrMixedItems)
	}

	type combo struct{ size, typ int }
	seen := make(map[combo]struct{}, len(p.Items))
	for _, item := range p.Items {
		if item.SizeID == nil || item.TypeID == nil {
			return "", fmt.Errorf("product %d item %d: %w", p.ID, item.ID, ErrMixedItems)
		}
		key := combo{*item.SizeID, *item.TypeID}
		if _, dup := seen[key]; dup {
			return "", fmt.Errorf("product %d item %d: %w", p.ID, item.ID, ErrDuplicateVariant)
		}
		seen[key] = struct{}{}
	}
	return KindConfigurable, nil
}

// FindItem returns the product's item with the given id.
func (p Product) FindItem(itemID int) (ProductItem, bool) {
	for _, item := range p.Items {
		if item.ID == itemID {
			return item, true
		}
	}
	return ProductItem{}, false
}

// IngredientsByID picks the product's ingredients whose ids are in ids,
// in the product's order. Unknown ids are skipped.
func (p Product) IngredientsByID(ids []int) []Ingredient {
	wanted := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	picked := make([]Ingredient, 0, len(ids))
	for _, ing := range p.Ingredients {
		if _, ok := wanted[ing.ID]; ok {
			picked = append(picked, ing)
		}
	}
	return picked
}

// IntPtr is a helper for building variant items.
func IntPtr(v int) *int {
	return &v
}
