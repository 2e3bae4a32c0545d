package query

import (
	"context"

	"github.com/example/pizza-shop/internal/domain/cart"
	"github.com/example/pizza-shop/internal/domain/catalog"
	"github.com/example/pizza-shop/internal/filter"
	"github.com/example/pizza-shop/internal/infrastructure/store"
	"github.com/example/pizza-shop/internal/pricing"
	"github.com/shopspring/decimal"
)

type Handler struct {
	readStore store.ReadStoreInterface
	catalog   store.CatalogReader
}

func NewHandler(readStore store.ReadStoreInterface, catalog store.CatalogReader) *Handler {
	return &Handler{readStore: readStore, catalog: catalog}
}

// Cart

// GetCart returns the owner's projected cart, or an empty one.
func (h *Handler) GetCart(ctx context.Context, owner string) *CartReadModel {
	cartID := cart.GetCartID(owner)
	c, ok := h.readStore.GetCart(ctx, cartID)
	if !ok {
		return &CartReadModel{
			ID:    cartID,
			Owner: owner,
			Items: []CartItemReadModel{},
			Total: pricing.Price(decimal.Zero),
		}
	}
	return c
}

// Orders
func (h *Handler) GetOrder(ctx context.Context, id string) (*OrderReadModel, bool) {
	return h.readStore.GetOrder(ctx, id)
}

func (h *Handler) ListOrdersByOwner(ctx context.Context, owner string) []*OrderReadModel {
	orders := h.readStore.ListOrdersByOwner(ctx, owner)
	if orders == nil {
		return []*OrderReadModel{}
	}
	return orders
}

// Catalog

// CatalogView is one page of the storefront: matching categories plus the
// reference data the filter panel needs.
type CatalogView struct {
	Categories []catalog.Category  `json:"categories"`
	Sizes      []catalog.PizzaSize `json:"sizes"`
	Types      []catalog.PizzaType `json:"pizza_types"`
	Filter     filter.Criteria     `json:"filter"`
	Query      map[string]string   `json:"query"`
}

func (h *Handler) GetCatalog(ctx context.Context, c filter.Criteria) (*CatalogView, error) {
	categories, err := h.catalog.ListCategories(ctx, c)
	if err != nil {
		return nil, err
	}
	sizes, err := h.catalog.ListSizes(ctx)
	if err != nil {
		return nil, err
	}
	types, err := h.catalog.ListTypes(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []catalog.Category{}
	}
	return &CatalogView{
		Categories: categories,
		Sizes:      sizes,
		Types:      types,
		Filter:     c,
		Query:      filter.ToQuery(c),
	}, nil
}
