package store

import (
	"context"

	"github.com/example/pizza-shop/internal/readmodel"
)

// ReadStoreInterface holds the projected cart and order views.
type ReadStoreInterface interface {
	SaveCart(ctx context.Context, cart *readmodel.CartReadModel) error
	GetCart(ctx context.Context, id string) (*readmodel.CartReadModel, bool)
	DeleteCart(ctx context.Context, id string) error

	SaveOrder(ctx context.Context, order *readmodel.OrderReadModel) error
	GetOrder(ctx context.Context, id string) (*readmodel.OrderReadModel, bool)
	ListOrdersByOwner(ctx context.Context, owner string) []*readmodel.OrderReadModel

	// UpdateOrder applies fn to a copy of the stored order and saves the
	// result. It reports false when the order is unknown.
	UpdateOrder(ctx context.Context, id string, fn func(o *readmodel.OrderReadModel)) (bool, error)
}
