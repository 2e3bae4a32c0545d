package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/pizza-shop/internal/domain/catalog"
	"github.com/example/pizza-shop/internal/filter"
)

// CatalogReader is the read-only product catalog.
type CatalogReader interface {
	GetProduct(ctx context.Context, id int) (*catalog.Product, error)
	GetProductItem(ctx context.Context, id int) (*catalog.ProductItem, error)
	ListCategories(ctx context.Context, c filter.Criteria) ([]catalog.Category, error)
	ListSizes(ctx context.Context) ([]catalog.PizzaSize, error)
	ListTypes(ctx context.Context) ([]catalog.PizzaType, error)
}

// MemoryCatalog serves a fixed catalog. Used for local runs and tests.
type MemoryCatalog struct {
	mu         sync.RWMutex
	categories []catalog.Category
	sizes      []catalog.PizzaSize
	types      []catalog.PizzaType
}

func NewMemoryCatalog(categories []catalog.Category, sizes []catalog.PizzaSize, types []catalog.PizzaType) *MemoryCatalog {
	return &MemoryCatalog{
		categories: categories,
		sizes:      sizes,
		types:      types,
	}
}

func (mc *MemoryCatalog) GetProduct(ctx context.Context, id int) (*catalog.Product, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	for _, cat := range mc.categories {
		for _, p := range cat.Products {
			if p.ID == id {
				cp := p
				return &cp, nil
			}
		}
	}
	return nil, fmt.Errorf("product %d: %w", id, catalog.ErrProductNotFound)
}

func (mc *MemoryCatalog) GetProductItem(ctx context.Context, id int) (*catalog.ProductItem, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	for _, cat := range mc.categories {
		for _, p := range cat.Products {
			if item, ok := p.FindItem(id); ok {
				return &item, nil
			}
		}
	}
	return nil, fmt.Errorf("product item %d: %w", id, catalog.ErrProductItemNotFound)
}

func (mc *MemoryCatalog) ListCategories(ctx context.Context, c filter.Criteria) ([]catalog.Category, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return filter.Apply(mc.categories, c), nil
}

func (mc *MemoryCatalog) ListSizes(ctx context.Context) ([]catalog.PizzaSize, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return append([]catalog.PizzaSize(nil), mc.sizes...), nil
}

func (mc *MemoryCatalog) ListTypes(ctx context.Context) ([]catalog.PizzaType, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return append([]catalog.PizzaType(nil), mc.types...), nil
}
