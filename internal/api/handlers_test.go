package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/pizza-shop/internal/auth"
	"github.com/example/pizza-shop/internal/command"
	"github.com/example/pizza-shop/internal/domain/cart"
	"github.com/example/pizza-shop/internal/domain/catalog"
	"github.com/example/pizza-shop/internal/domain/order"
	"github.com/example/pizza-shop/internal/infrastructure/store"
	"github.com/example/pizza-shop/internal/projection"
	"github.com/example/pizza-shop/internal/query"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testCatalog() *store.MemoryCatalog {
	pizza := catalog.Product{
		ID:         1,
		Name:       "Pepperoni",
		CategoryID: 1,
		Items: []catalog.ProductItem{
			{ID: 11, ProductID: 1, Price: d("399"), SizeID: catalog.IntPtr(1), TypeID: catalog.IntPtr(1)},
			{ID: 12, ProductID: 1, Price: d("549"), SizeID: catalog.IntPtr(2), TypeID: catalog.IntPtr(1)},
		},
		Ingredients: []catalog.Ingredient{{ID: 1, Name: "Cheddar", Price: d("79")}},
	}
	drink := catalog.Product{
		ID:         2,
		Name:       "Cola",
		CategoryID: 2,
		Items:      []catalog.ProductItem{{ID: 21, ProductID: 2, Price: d("99")}},
	}
	broken := catalog.Product{ID: 3, Name: "Broken", CategoryID: 2}
	return store.NewMemoryCatalog(
		[]catalog.Category{
			{ID: 1, Name: "Pizzas", Products: []catalog.Product{pizza}},
			{ID: 2, Name: "Drinks", Products: []catalog.Product{drink, broken}},
		},
		[]catalog.PizzaSize{{ID: 1, Label: "Small", Size: 20}, {ID: 2, Label: "Medium", Size: 30}},
		[]catalog.PizzaType{{ID: 1, Type: "traditional"}},
	)
}

type testServer struct {
	handler http.Handler
	jwt     *auth.JWTService
	orders  *order.Service
}

// newTestServer wires the memory stores with synchronous projection.
func newTestServer() *testServer {
	readStore := store.NewReadStore()
	projector := projection.NewProjector(readStore)
	eventStore := store.NewEventStore(store.PublisherFunc(func(ctx context.Context, key string, event store.Event) error {
		return projector.Project(ctx, event)
	}))
	catalogReader := testCatalog()

	cartSvc := cart.NewService(eventStore)
	orderSvc := order.NewService(eventStore)
	jwtService := auth.NewJWTService("test-secret", "", time.Hour)

	handlers := NewHandlers(
		command.NewHandler(catalogReader, cartSvc, orderSvc, d("250")),
		query.NewHandler(readStore, catalogReader),
	)
	return &testServer{
		handler: NewRouter(handlers, RouterConfig{JWT: jwtService}),
		jwt:     jwtService,
		orders:  orderSvc,
	}
}

// shopper is one browser session.
type shopper struct {
	t      *testing.T
	srv    *testServer
	token  string
	bearer string
}

func (s *testServer) anonymous(t *testing.T) *shopper {
	return &shopper{t: t, srv: s, token: uuid.NewString()}
}

func (s *testServer) signedIn(t *testing.T, userID, role string) *shopper {
	token, _, err := s.jwt.GenerateAccessToken(userID, userID+"@example.com", role)
	require.NoError(t, err)
	return &shopper{t: t, srv: s, bearer: token}
}

func (sh *shopper) do(method, path, body string) *httptest.ResponseRecorder {
	sh.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if sh.token != "" {
		req.AddCookie(&http.Cookie{Name: "cart_token", Value: sh.token})
	}
	if sh.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+sh.bearer)
	}
	rec := httptest.NewRecorder()
	sh.srv.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const contactJSON = `{"contact":{"first_name":"Jane","last_name":"Doe","email":"jane@example.com","phone":"+15555550100","address":"1 Main Street"}}`

// ============================================
// Catalog Tests
// ============================================

func TestGetCatalog_Filtered(t *testing.T) {
	srv := newTestServer()
	sh := srv.anonymous(t)

	rec := sh.do(http.MethodGet, "/catalog?pizzaTypes=1&priceFrom=500&bogus=1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[query.CatalogView](t, rec)
	require.Len(t, view.Categories, 1)
	assert.Equal(t, "Pizzas", view.Categories[0].Name)
	assert.Equal(t, map[string]string{"pizzaTypes": "1", "priceFrom": "500"}, view.Query)
}

func TestGetProduct_Configuration(t *testing.T) {
	srv := newTestServer()
	sh := srv.anonymous(t)

	rec := sh.do(http.MethodGet, "/products/1?size=2&addons=1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[query.ProductView](t, rec)
	assert.Equal(t, catalog.KindConfigurable, view.Kind)
	assert.Equal(t, 12, view.ItemID)
	assert.True(t, view.CanAddToCart)
	assert.True(t, view.Price.Decimal.Equal(d("628")))
	assert.Equal(t, "30 cm, traditional dough, 1 ingredient", view.Description)
}

func TestGetProduct_Errors(t *testing.T) {
	srv := newTestServer()
	sh := srv.anonymous(t)

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/products/abc", http.StatusBadRequest},
		{"/products/404", http.StatusNotFound},
		{"/products/3", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := sh.do(http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

// ============================================
// Cart Tests
// ============================================

func TestCart_Flow(t *testing.T) {
	srv := newTestServer()
	sh := srv.anonymous(t)

	rec := sh.do(http.MethodPost, "/cart/items", `{"product_item_id":12,"ingredients":[1],"quantity":2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rowID := decode[map[string]string](t, rec)["id"]
	require.NotEmpty(t, rowID)

	rec = sh.do(http.MethodPost, "/cart/items", `{"product_item_id":21}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = sh.do(http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	c := decode[query.CartReadModel](t, rec)
	require.Len(t, c.Items, 2)
	// (549 + 79) × 2 + 99
	assert.True(t, c.Total.Decimal.Equal(d("1355")), c.Total.Decimal.String())

	rec = sh.do(http.MethodPatch, "/cart/items/"+rowID, `{"quantity":1}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = sh.do(http.MethodGet, "/checkout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[struct {
		Totals struct {
			Items    decimal.Decimal `json:"items"`
			Delivery decimal.Decimal `json:"delivery"`
			Total    decimal.Decimal `json:"total"`
		} `json:"totals"`
	}](t, rec)
	assert.True(t, summary.Totals.Items.Equal(d("727")))
	assert.True(t, summary.Totals.Total.Equal(d("977")))

	rec = sh.do(http.MethodDelete, "/cart/items/"+rowID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = sh.do(http.MethodDelete, "/cart", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	c = decode[query.CartReadModel](t, sh.do(http.MethodGet, "/cart", ""))
	assert.Empty(t, c.Items)
	assert.True(t, c.Total.Valid)
	assert.True(t, c.Total.Decimal.IsZero())
}

func TestCart_IssuesTokenForNewShopper(t *testing.T) {
	srv := newTestServer()
	sh := &shopper{t: t, srv: srv}

	rec := sh.do(http.MethodGet, "/cart", "")

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := decode[query.CartReadModel](t, rec)
	assert.Equal(t, cookies[0].Value, c.Owner)
}

func TestCart_Errors(t *testing.T) {
	srv := newTestServer()
	sh := srv.anonymous(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"malformed body", http.MethodPost, "/cart/items", `{`, http.StatusBadRequest},
		{"missing item", http.MethodPost, "/cart/items", `{}`, http.StatusBadRequest},
		{"unknown item", http.MethodPost, "/cart/items", `{"product_item_id":999}`, http.StatusNotFound},
		{"bad quantity", http.MethodPost, "/cart/items", `{"product_item_id":21,"quantity":-2}`, http.StatusBadRequest},
		{"unknown row", http.MethodPatch, "/cart/items/nope", `{"quantity":2}`, http.StatusNotFound},
		{"method", http.MethodPut, "/cart", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := sh.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

// ============================================
// Checkout and Order Tests
// ============================================

func checkout(t *testing.T, sh *shopper) query.OrderReadModel {
	t.Helper()
	rec := sh.do(http.MethodPost, "/cart/items", `{"product_item_id":11}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = sh.do(http.MethodPost, "/checkout", contactJSON)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	placed := decode[order.Order](t, rec)

	rec = sh.do(http.MethodGet, "/orders/"+placed.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	return decode[query.OrderReadModel](t, rec)
}

func TestCheckout_PlacesOrderAndClearsCart(t *testing.T) {
	srv := newTestServer()
	sh := srv.anonymous(t)

	o := checkout(t, sh)

	assert.Equal(t, "pending", o.Status)
	assert.True(t, o.ItemsTotal.Equal(d("399")))
	assert.True(t, o.DeliveryFee.Equal(d("250")))
	assert.True(t, o.Total.Equal(d("649")))
	assert.Equal(t, "Jane", o.Contact.FirstName)

	c := decode[query.CartReadModel](t, sh.do(http.MethodGet, "/cart", ""))
	assert.Empty(t, c.Items)

	orders := decode[[]query.OrderReadModel](t, sh.do(http.MethodGet, "/orders", ""))
	require.Len(t, orders, 1)
	assert.Equal(t, o.ID, orders[0].ID)
}

func TestCheckout_Errors(t *testing.T) {
	srv := newTestServer()
	sh := srv.anonymous(t)

	rec := sh.do(http.MethodPost, "/checkout", contactJSON)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "empty cart")

	sh.do(http.MethodPost, "/cart/items", `{"product_item_id":21}`)
	rec = sh.do(http.MethodPost, "/checkout", `{"contact":{"first_name":"J"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "first name")
}

func TestOrder_OtherShopperForbidden(t *testing.T) {
	srv := newTestServer()
	o := checkout(t, srv.anonymous(t))

	stranger := srv.anonymous(t)
	assert.Equal(t, http.StatusForbidden, stranger.do(http.MethodGet, "/orders/"+o.ID, "").Code)
	assert.Equal(t, http.StatusForbidden, stranger.do(http.MethodPost, "/orders/"+o.ID+"/cancel", "").Code)

	admin := srv.signedIn(t, "staff-1", auth.RoleAdmin)
	assert.Equal(t, http.StatusOK, admin.do(http.MethodGet, "/orders/"+o.ID, "").Code)

	assert.Equal(t, http.StatusNotFound, stranger.do(http.MethodGet, "/orders/missing", "").Code)
}

func TestOrder_CancelThenComplete(t *testing.T) {
	srv := newTestServer()
	sh := srv.anonymous(t)
	o := checkout(t, sh)

	rec := sh.do(http.MethodPost, "/orders/"+o.ID+"/cancel", `{"reason":"changed mind"}`)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	got := decode[query.OrderReadModel](t, sh.do(http.MethodGet, "/orders/"+o.ID, ""))
	assert.Equal(t, "cancelled", got.Status)

	rec = sh.do(http.MethodPost, "/orders/"+o.ID+"/cancel", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	admin := srv.signedIn(t, "staff-1", auth.RoleAdmin)
	rec = admin.do(http.MethodPost, "/orders/"+o.ID+"/complete", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestOrder_CompleteRequiresAdmin(t *testing.T) {
	srv := newTestServer()
	sh := srv.anonymous(t)
	o := checkout(t, sh)

	assert.Equal(t, http.StatusUnauthorized, sh.do(http.MethodPost, "/orders/"+o.ID+"/complete", "").Code)

	customer := srv.signedIn(t, "user-1", "customer")
	assert.Equal(t, http.StatusForbidden, customer.do(http.MethodPost, "/orders/"+o.ID+"/complete", "").Code)

	admin := srv.signedIn(t, "staff-1", auth.RoleAdmin)
	require.Equal(t, http.StatusNoContent, admin.do(http.MethodPost, "/orders/"+o.ID+"/complete", "").Code)

	stored, err := srv.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusSucceeded, stored.Status)

	got := decode[query.OrderReadModel](t, sh.do(http.MethodGet, "/orders/"+o.ID, ""))
	assert.Equal(t, "succeeded", got.Status)
}

func TestSignedInUserOwnsCart(t *testing.T) {
	srv := newTestServer()
	user := srv.signedIn(t, "user-42", "customer")

	rec := user.do(http.MethodPost, "/cart/items", `{"product_item_id":21}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	c := decode[query.CartReadModel](t, user.do(http.MethodGet, "/cart", ""))
	assert.Equal(t, "user-42", c.Owner)
	assert.Equal(t, cart.GetCartID("user-42"), c.ID)
}
