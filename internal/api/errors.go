package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/example/pizza-shop/internal/domain/cart"
	"github.com/example/pizza-shop/internal/domain/catalog"
	"github.com/example/pizza-shop/internal/domain/order"
	"github.com/example/pizza-shop/internal/domain/variant"
	"github.com/example/pizza-shop/internal/infrastructure/store"
	"github.com/example/pizza-shop/internal/pricing"
)

var (
	badRequest = []error{
		cart.ErrInvalidOwner,
		cart.ErrInvalidQuantity,
		cart.ErrInvalidProductItem,
		order.ErrEmptyOrder,
		order.ErrInvalidContact,
		pricing.ErrInvalidQuantity,
	}
	notFound = []error{
		catalog.ErrProductNotFound,
		catalog.ErrProductItemNotFound,
		cart.ErrCartItemNotFound,
		order.ErrOrderNotFound,
	}
	conflict = []error{
		order.ErrInvalidStatus,
		order.ErrOrderCancelled,
		order.ErrOrderCompleted,
		store.ErrVersionConflict,
	}
	// Broken catalog rows. The shopper cannot fix these.
	integrity = []error{
		catalog.ErrNoItems,
		catalog.ErrMixedItems,
		catalog.ErrDuplicateVariant,
		catalog.ErrInvalidSimpleProduct,
		variant.ErrEmptyMatrix,
		pricing.ErrMissingPrice,
		pricing.ErrNegativePrice,
	}
)

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondDomainError maps domain sentinels to status codes.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case isAny(err, badRequest):
		respondJSONError(w, err.Error(), http.StatusBadRequest)
	case isAny(err, notFound):
		respondJSONError(w, err.Error(), http.StatusNotFound)
	case isAny(err, conflict):
		respondJSONError(w, err.Error(), http.StatusConflict)
	case isAny(err, integrity):
		log.Printf("[API] Catalog data error on %s %s: %v", r.Method, r.URL.Path, err)
		respondJSONError(w, "catalog data error", http.StatusInternalServerError)
	default:
		log.Printf("[API] Error on %s %s: %v", r.Method, r.URL.Path, err)
		respondJSONError(w, "internal error", http.StatusInternalServerError)
	}
}
