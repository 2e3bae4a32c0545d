package query

import (
	"context"
	"testing"
	"time"

	"github.com/example/pizza-shop/internal/domain/catalog"
	"github.com/example/pizza-shop/internal/filter"
	"github.com/example/pizza-shop/internal/infrastructure/store/mocks"
	"github.com/example/pizza-shop/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pepperoni() catalog.Product {
	return catalog.Product{
		ID:         1,
		Name:       "Pepperoni",
		CategoryID: 1,
		Items: []catalog.ProductItem{
			{ID: 11, ProductID: 1, Price: d("399"), SizeID: catalog.IntPtr(1), TypeID: catalog.IntPtr(1)},
			{ID: 12, ProductID: 1, Price: d("549"), SizeID: catalog.IntPtr(2), TypeID: catalog.IntPtr(1)},
			{ID: 13, ProductID: 1, Price: d("450"), SizeID: catalog.IntPtr(1), TypeID: catalog.IntPtr(2)},
		},
		Ingredients: []catalog.Ingredient{
			{ID: 1, Name: "Cheddar", Price: d("79")},
			{ID: 2, Name: "Olives", Price: d("59.50")},
		},
	}
}

func cola() catalog.Product {
	return catalog.Product{
		ID:         2,
		Name:       "Cola",
		CategoryID: 2,
		Items:      []catalog.ProductItem{{ID: 21, ProductID: 2, Price: d("99")}},
	}
}

func newTestQueryHandler() (*Handler, *mocks.MockReadStore, *mocks.MockCatalog) {
	readStore := mocks.NewMockReadStore()
	catalogReader := mocks.NewMockCatalog(pepperoni(), cola())
	catalogReader.Categories = []catalog.Category{
		{ID: 1, Name: "Pizzas", Products: []catalog.Product{pepperoni()}},
		{ID: 2, Name: "Drinks", Products: []catalog.Product{cola()}},
	}
	catalogReader.Sizes = []catalog.PizzaSize{
		{ID: 1, Label: "Small", Size: 20},
		{ID: 2, Label: "Medium", Size: 30},
	}
	catalogReader.Types = []catalog.PizzaType{
		{ID: 1, Type: "traditional"},
		{ID: 2, Type: "thin"},
	}
	return NewHandler(readStore, catalogReader), readStore, catalogReader
}

// ============================================
// Cart Query Tests
// ============================================

func TestHandler_GetCart_Found(t *testing.T) {
	handler, readStore, _ := newTestQueryHandler()
	ctx := context.Background()

	expected := &CartReadModel{
		ID:    "cart-user-123",
		Owner: "user-123",
		Items: []CartItemReadModel{{ID: "row-1", Name: "Cola", Price: pricing.Price(d("99")), Quantity: 2}},
	}
	require.NoError(t, expected.Recalculate())
	require.NoError(t, readStore.SaveCart(ctx, expected))

	c := handler.GetCart(ctx, "user-123")

	assert.Equal(t, "cart-user-123", c.ID)
	require.Len(t, c.Items, 1)
	assert.True(t, c.Total.Valid)
	assert.True(t, c.Total.Decimal.Equal(d("198")))
}

func TestHandler_GetCart_NotFoundReturnsEmpty(t *testing.T) {
	handler, _, _ := newTestQueryHandler()

	c := handler.GetCart(context.Background(), "token-abc")

	assert.Equal(t, "cart-token-abc", c.ID)
	assert.Equal(t, "token-abc", c.Owner)
	assert.NotNil(t, c.Items)
	assert.Empty(t, c.Items)
	assert.True(t, c.Total.Valid)
	assert.True(t, c.Total.Decimal.IsZero())
}

// ============================================
// Order Query Tests
// ============================================

func TestHandler_GetOrder(t *testing.T) {
	handler, readStore, _ := newTestQueryHandler()
	ctx := context.Background()

	require.NoError(t, readStore.SaveOrder(ctx, &OrderReadModel{ID: "order-1", Owner: "user-123", Status: "pending"}))

	o, found := handler.GetOrder(ctx, "order-1")
	assert.True(t, found)
	assert.Equal(t, "pending", o.Status)

	o, found = handler.GetOrder(ctx, "missing")
	assert.False(t, found)
	assert.Nil(t, o)
}

func TestHandler_ListOrdersByOwner(t *testing.T) {
	handler, readStore, _ := newTestQueryHandler()
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, readStore.SaveOrder(ctx, &OrderReadModel{ID: "order-1", Owner: "user-123", CreatedAt: now}))
	require.NoError(t, readStore.SaveOrder(ctx, &OrderReadModel{ID: "order-2", Owner: "user-456", CreatedAt: now}))

	assert.Len(t, handler.ListOrdersByOwner(ctx, "user-123"), 1)

	none := handler.ListOrdersByOwner(ctx, "nobody")
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

// ============================================
// Catalog Query Tests
// ============================================

func TestHandler_GetCatalog_Unfiltered(t *testing.T) {
	handler, _, _ := newTestQueryHandler()

	view, err := handler.GetCatalog(context.Background(), filter.Default())

	require.NoError(t, err)
	assert.Len(t, view.Categories, 2)
	assert.Len(t, view.Sizes, 2)
	assert.Len(t, view.Types, 2)
	assert.Empty(t, view.Query)
}

func TestHandler_GetCatalog_Filtered(t *testing.T) {
	handler, _, _ := newTestQueryHandler()
	c := filter.Default()
	c.TypeIDs = []int{2}

	view, err := handler.GetCatalog(context.Background(), c)

	require.NoError(t, err)
	require.Len(t, view.Categories, 1)
	assert.Equal(t, "Pizzas", view.Categories[0].Name)
	assert.Equal(t, map[string]string{filter.KeyPizzaTypes: "2"}, view.Query)
}

func TestHandler_GetCatalog_NothingMatches(t *testing.T) {
	handler, _, _ := newTestQueryHandler()
	c := filter.Default()
	c.IngredientIDs = []int{42}

	view, err := handler.GetCatalog(context.Background(), c)

	require.NoError(t, err)
	assert.NotNil(t, view.Categories)
	assert.Empty(t, view.Categories)
}

// ============================================
// Product Configuration Tests
// ============================================

func TestHandler_ConfigureProduct_DefaultsToCheapest(t *testing.T) {
	handler, _, _ := newTestQueryHandler()

	view, err := handler.ConfigureProduct(context.Background(), 1, filter.Default(), Choice{})

	require.NoError(t, err)
	assert.Equal(t, catalog.KindConfigurable, view.Kind)
	require.NotNil(t, view.Selection)
	assert.Equal(t, 11, view.ItemID)
	assert.True(t, view.CanAddToCart)
	assert.True(t, view.Price.Valid)
	assert.True(t, view.Price.Decimal.Equal(d("399")))
	assert.Equal(t, "20 cm, traditional dough", view.Description)
	require.Len(t, view.Sizes, 2)
	assert.True(t, view.Sizes[0].Active)
	assert.False(t, view.Sizes[1].Disabled)
}

func TestHandler_ConfigureProduct_FilterHint(t *testing.T) {
	handler, _, _ := newTestQueryHandler()
	c := filter.Default()
	c.SizeIDs = []int{2}

	view, err := handler.ConfigureProduct(context.Background(), 1, c, Choice{})

	require.NoError(t, err)
	assert.Equal(t, 12, view.ItemID)
	assert.True(t, view.Price.Decimal.Equal(d("549")))
}

func TestHandler_ConfigureProduct_FilterHintTriesEveryID(t *testing.T) {
	handler, _, _ := newTestQueryHandler()
	c := filter.Default()
	c.TypeIDs = []int{3, 2}

	view, err := handler.ConfigureProduct(context.Background(), 1, c, Choice{})

	require.NoError(t, err)
	assert.Equal(t, 13, view.ItemID)
	assert.Equal(t, "20 cm, thin dough", view.Description)
}

func TestHandler_ConfigureProduct_TypeThenUnavailableSize(t *testing.T) {
	handler, _, _ := newTestQueryHandler()
	ctx := context.Background()

	view, err := handler.ConfigureProduct(ctx, 1, filter.Default(), Choice{TypeID: 2})
	require.NoError(t, err)
	assert.Equal(t, 13, view.ItemID)
	assert.Equal(t, "20 cm, thin dough", view.Description)
	assert.True(t, view.Sizes[1].Disabled, "thin has no medium")

	view, err = handler.ConfigureProduct(ctx, 1, filter.Default(), Choice{TypeID: 2, SizeID: 2})
	require.NoError(t, err)
	assert.Zero(t, view.ItemID)
	assert.False(t, view.CanAddToCart)
	assert.False(t, view.Price.Valid)
}

func TestHandler_ConfigureProduct_Ingredients(t *testing.T) {
	handler, _, _ := newTestQueryHandler()

	view, err := handler.ConfigureProduct(context.Background(), 1, filter.Default(), Choice{Ingredients: []int{1, 1, 2}})

	require.NoError(t, err)
	// 399 + 79 + 59.50
	assert.True(t, view.Price.Decimal.Equal(d("537.50")), view.Price.Decimal.String())
	assert.Equal(t, "20 cm, traditional dough, 2 ingredients", view.Description)
}

func TestHandler_ConfigureProduct_UnknownIngredientIgnoredInPrice(t *testing.T) {
	handler, _, _ := newTestQueryHandler()

	view, err := handler.ConfigureProduct(context.Background(), 1, filter.Default(), Choice{Ingredients: []int{1, 99}})

	require.NoError(t, err)
	assert.True(t, view.Price.Decimal.Equal(d("478")))
}

func TestHandler_ConfigureProduct_SimpleProduct(t *testing.T) {
	handler, _, _ := newTestQueryHandler()

	view, err := handler.ConfigureProduct(context.Background(), 2, filter.Default(), Choice{TypeID: 1})

	require.NoError(t, err)
	assert.Equal(t, catalog.KindSimple, view.Kind)
	assert.Nil(t, view.Selection)
	assert.Empty(t, view.Sizes)
	assert.Equal(t, 21, view.ItemID)
	assert.True(t, view.CanAddToCart)
	assert.True(t, view.Price.Decimal.Equal(d("99")))
}

func TestHandler_ConfigureProduct_Errors(t *testing.T) {
	handler, _, catalogReader := newTestQueryHandler()
	ctx := context.Background()

	_, err := handler.ConfigureProduct(ctx, 404, filter.Default(), Choice{})
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)

	catalogReader.Products[3] = catalog.Product{
		ID: 3,
		Items: []catalog.ProductItem{
			{ID: 31, Price: d("1")},
			{ID: 32, Price: d("2"), SizeID: catalog.IntPtr(1), TypeID: catalog.IntPtr(1)},
		},
	}
	_, err = handler.ConfigureProduct(ctx, 3, filter.Default(), Choice{})
	assert.ErrorIs(t, err, catalog.ErrMixedItems)
}
