package mocks

import (
	"context"
	"fmt"

	"github.com/example/pizza-shop/internal/domain/catalog"
	"github.com/example/pizza-shop/internal/filter"
)

// MockCatalog serves products from a map and counts lookups.
type MockCatalog struct {
	Products   map[int]catalog.Product
	Categories []catalog.Category
	Sizes      []catalog.PizzaSize
	Types      []catalog.PizzaType
	Err        error

	GetProductCalls     int
	ListCategoriesCalls int
	ListSizesCalls      int
}

func NewMockCatalog(products ...catalog.Product) *MockCatalog {
	m := &MockCatalog{Products: make(map[int]catalog.Product)}
	for _, p := range products {
		m.Products[p.ID] = p
	}
	return m
}

func (m *MockCatalog) GetProduct(ctx context.Context, id int) (*catalog.Product, error) {
	m.GetProductCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.Products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, catalog.ErrProductNotFound)
	}
	return &p, nil
}

func (m *MockCatalog) GetProductItem(ctx context.Context, id int) (*catalog.ProductItem, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, p := range m.Products {
		if item, ok := p.FindItem(id); ok {
			return &item, nil
		}
	}
	return nil, fmt.Errorf("product item %d: %w", id, catalog.ErrProductItemNotFound)
}

func (m *MockCatalog) ListCategories(ctx context.Context, c filter.Criteria) ([]catalog.Category, error) {
	m.ListCategoriesCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	return filter.Apply(m.Categories, c), nil
}

func (m *MockCatalog) ListSizes(ctx context.Context) ([]catalog.PizzaSize, error) {
	m.ListSizesCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Sizes, nil
}

func (m *MockCatalog) ListTypes(ctx context.Context) ([]catalog.PizzaType, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Types, nil
}
