package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/pizza-shop/internal/api/middleware"
	"github.com/example/pizza-shop/internal/command"
	"github.com/example/pizza-shop/internal/filter"
	"github.com/example/pizza-shop/internal/pricing"
	"github.com/example/pizza-shop/internal/query"
)

// Query parameters of the product dialog, on top of the catalog filter.
const (
	paramType   = "type"
	paramSize   = "size"
	paramAddons = "addons"
)

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
	}
}

// Catalog Handlers

func (h *Handlers) GetCatalog(w http.ResponseWriter, r *http.Request) {
	criteria := filter.FromValues(r.URL.Query())
	view, err := h.queryHandler.GetCatalog(r.Context(), criteria)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(extractPathParam(r.URL.Path, "/products/"))
	if err != nil || id <= 0 {
		respondJSONError(w, "invalid product id", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	choice := query.Choice{
		TypeID:      atoiOrZero(q.Get(paramType)),
		SizeID:      atoiOrZero(q.Get(paramSize)),
		Ingredients: filter.FromQuery(map[string]string{filter.KeyIngredients: strings.Join(q[paramAddons], ",")}).IngredientIDs,
	}

	view, err := h.queryHandler.ConfigureProduct(r.Context(), id, filter.FromValues(q), choice)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Cart Handlers

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	cart := h.queryHandler.GetCart(r.Context(), middleware.ShopperFrom(r.Context()).Owner)
	respondJSON(w, http.StatusOK, cart)
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var cmd command.AddToCart
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	cmd.Owner = middleware.ShopperFrom(r.Context()).Owner

	itemID, err := h.cmdHandler.AddToCart(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": itemID})
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var cmd command.UpdateCartItem
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	cmd.Owner = middleware.ShopperFrom(r.Context()).Owner
	cmd.ItemID = extractPathParam(r.URL.Path, "/cart/items/")

	if err := h.cmdHandler.UpdateCartItem(r.Context(), cmd); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	cmd := command.RemoveCartItem{
		Owner:  middleware.ShopperFrom(r.Context()).Owner,
		ItemID: extractPathParam(r.URL.Path, "/cart/items/"),
	}
	if err := h.cmdHandler.RemoveCartItem(r.Context(), cmd); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	cmd := command.ClearCart{Owner: middleware.ShopperFrom(r.Context()).Owner}
	if err := h.cmdHandler.ClearCart(r.Context(), cmd); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout Handlers

// GetCheckout returns the totals shown on the checkout page.
func (h *Handlers) GetCheckout(w http.ResponseWriter, r *http.Request) {
	cart := h.queryHandler.GetCart(r.Context(), middleware.ShopperFrom(r.Context()).Owner)
	totals, err := pricing.Breakdown(cart.Lines(), h.cmdHandler.DeliveryFee())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"cart":   cart,
		"totals": totals,
	})
}

func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var cmd command.PlaceOrder
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	cmd.Owner = middleware.ShopperFrom(r.Context()).Owner
	cmd.UserID = middleware.ShopperFrom(r.Context()).UserID()

	order, err := h.cmdHandler.PlaceOrder(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

// Order Handlers

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders := h.queryHandler.ListOrdersByOwner(r.Context(), middleware.ShopperFrom(r.Context()).Owner)
	respondJSON(w, http.StatusOK, orders)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/orders/")
	order, ok := h.authorizedOrder(w, r, id)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/orders/"), "/cancel")
	if _, ok := h.authorizedOrder(w, r, id); !ok {
		return
	}

	var cmd command.CancelOrder
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			respondJSONError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}
	cmd.OrderID = id

	if err := h.cmdHandler.CancelOrder(r.Context(), cmd); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompleteOrder is called by staff once the order is paid and delivered.
func (h *Handlers) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/orders/"), "/complete")
	if err := h.cmdHandler.CompleteOrder(r.Context(), command.CompleteOrder{OrderID: id}); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authorizedOrder loads the order and checks that the caller owns it.
// Admins can access all orders.
func (h *Handlers) authorizedOrder(w http.ResponseWriter, r *http.Request, id string) (*query.OrderReadModel, bool) {
	order, ok := h.queryHandler.GetOrder(r.Context(), id)
	if !ok {
		respondJSONError(w, "order not found", http.StatusNotFound)
		return nil, false
	}
	shopper := middleware.ShopperFrom(r.Context())
	if order.Owner != shopper.Owner && !shopper.IsAdmin() {
		respondJSONError(w, "forbidden", http.StatusForbidden)
		return nil, false
	}
	return order, true
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
