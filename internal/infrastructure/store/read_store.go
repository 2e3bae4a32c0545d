package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/example/pizza-shop/internal/readmodel"
)

// ReadStore keeps read models in memory. Values are stored as JSON so
// callers never share slices with the store.
type ReadStore struct {
	mu     sync.RWMutex
	carts  map[string][]byte
	orders map[string][]byte
}

func NewReadStore() *ReadStore {
	return &ReadStore{
		carts:  make(map[string][]byte),
		orders: make(map[string][]byte),
	}
}

func (rs *ReadStore) SaveCart(ctx context.Context, cart *readmodel.CartReadModel) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.carts[cart.ID] = data
	return nil
}

func (rs *ReadStore) GetCart(ctx context.Context, id string) (*readmodel.CartReadModel, bool) {
	rs.mu.RLock()
	data, ok := rs.carts[id]
	rs.mu.RUnlock()
	if !ok {
		return nil, false
	}
	var cart readmodel.CartReadModel
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, false
	}
	return &cart, true
}

func (rs *ReadStore) DeleteCart(ctx context.Context, id string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	delete(rs.carts, id)
	return nil
}

func (rs *ReadStore) SaveOrder(ctx context.Context, order *readmodel.OrderReadModel) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.orders[order.ID] = data
	return nil
}

func (rs *ReadStore) GetOrder(ctx context.Context, id string) (*readmodel.OrderReadModel, bool) {
	rs.mu.RLock()
	data, ok := rs.orders[id]
	rs.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return decodeOrder(data)
}

// ListOrdersByOwner returns the owner's orders, newest first.
func (rs *ReadStore) ListOrdersByOwner(ctx context.Context, owner string) []*readmodel.OrderReadModel {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	var orders []*readmodel.OrderReadModel
	for _, data := range rs.orders {
		o, ok := decodeOrder(data)
		if ok && o.Owner == owner {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}

func (rs *ReadStore) UpdateOrder(ctx context.Context, id string, fn func(o *readmodel.OrderReadModel)) (bool, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	data, ok := rs.orders[id]
	if !ok {
		return false, nil
	}
	o, ok := decodeOrder(data)
	if !ok {
		return false, nil
	}
	fn(o)
	updated, err := json.Marshal(o)
	if err != nil {
		return false, err
	}
	rs.orders[id] = updated
	return true, nil
}

func decodeOrder(data []byte) (*readmodel.OrderReadModel, bool) {
	var o readmodel.OrderReadModel
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, false
	}
	return &o, true
}
