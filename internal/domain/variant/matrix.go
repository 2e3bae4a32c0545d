// Package variant indexes the size × type combinations of a configurable
// product so availability queries don't rescan the item list.
package variant

import (
	"errors"

	"github.com/example/pizza-shop/internal/domain/catalog"
)

var ErrEmptyMatrix = errors.New("variant matrix has no items")

type key struct {
	size int
	typ  int
}

// Matrix is read-only after New and safe to share.
type Matrix struct {
	items       []catalog.ProductItem
	byType      map[int][]catalog.ProductItem
	sizesByType map[int][]int
	byCombo     map[key]catalog.ProductItem
}

func New(items []catalog.ProductItem) *Matrix {
	m := &Matrix{
		items:       append([]catalog.ProductItem(nil), items...),
		byType:      make(map[int][]catalog.ProductItem),
		sizesByType: make(map[int][]int),
		byCombo:     make(map[key]catalog.ProductItem, len(items)),
	}

	seenSize := make(map[key]struct{})
	for _, item := range m.items {
		size, typ := item.Size(), item.Type()

		m.byType[typ] = append(m.byType[typ], item)

		k := key{size, typ}
		if _, ok := seenSize[k]; !ok {
			seenSize[k] = struct{}{}
			m.sizesByType[typ] = append(m.sizesByType[typ], size)
		}
		// first occurrence wins if the catalog ever violates uniqueness
		if _, ok := m.byCombo[k]; !ok {
			m.byCombo[k] = item
		}
	}
	return m
}

// ItemsForType returns the items of the given type in input order.
func (m *Matrix) ItemsForType(typeID int) []catalog.ProductItem {
	return append([]catalog.ProductItem(nil), m.byType[typeID]...)
}

// AvailableSizesForType returns the distinct size ids offered for a type,
// ordered by first occurrence.
func (m *Matrix) AvailableSizesForType(typeID int) []int {
	return append([]int(nil), m.sizesByType[typeID]...)
}

// IsSizeAvailable reports whether sizeID is offered for typeID.
func (m *Matrix) IsSizeAvailable(sizeID, typeID int) bool {
	_, ok := m.byCombo[key{sizeID, typeID}]
	return ok
}

// FindItem looks up the exact (size, type) pair. A miss means the
// combination is not purchasable; it is not an error.
func (m *Matrix) FindItem(sizeID, typeID int) (catalog.ProductItem, bool) {
	item, ok := m.byCombo[key{sizeID, typeID}]
	return item, ok
}

// CheapestItem returns the lowest-priced item, the earliest one on ties.
func (m *Matrix) CheapestItem() (catalog.ProductItem, error) {
	if len(m.items) == 0 {
		return catalog.ProductItem{}, ErrEmptyMatrix
	}
	cheapest := m.items[0]
	for _, item := range m.items[1:] {
		if item.Price.LessThan(cheapest.Price) {
			cheapest = item
		}
	}
	return cheapest, nil
}

// FirstWithSize returns the first item in input order with the given size.
func (m *Matrix) FirstWithSize(sizeID int) (catalog.ProductItem, bool) {
	for _, item := range m.items {
		if item.Size() == sizeID {
			return item, true
		}
	}
	return catalog.ProductItem{}, false
}

// FirstWithType returns the first item in input order with the given type.
func (m *Matrix) FirstWithType(typeID int) (catalog.ProductItem, bool) {
	items := m.byType[typeID]
	if len(items) == 0 {
		return catalog.ProductItem{}, false
	}
	return items[0], true
}

// HasType reports whether the product has any item of the given type.
func (m *Matrix) HasType(typeID int) bool {
	return len(m.byType[typeID]) > 0
}
