package mocks

import (
	"context"
	"sync"

	"github.com/example/pizza-shop/internal/readmodel"
)

// MockReadStore is an in-memory ReadStoreInterface that records writes.
type MockReadStore struct {
	mu     sync.RWMutex
	carts  map[string]*readmodel.CartReadModel
	orders map[string]*readmodel.OrderReadModel

	SaveCartCalls    []string
	DeleteCartCalls  []string
	SaveOrderCalls   []string
	UpdateOrderCalls []string
	SaveErr          error
}

func NewMockReadStore() *MockReadStore {
	return &MockReadStore{
		carts:  make(map[string]*readmodel.CartReadModel),
		orders: make(map[string]*readmodel.OrderReadModel),
	}
}

func (m *MockReadStore) SaveCart(ctx context.Context, cart *readmodel.CartReadModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCartCalls = append(m.SaveCartCalls, cart.ID)
	if m.SaveErr != nil {
		return m.SaveErr
	}
	cp := *cart
	cp.Items = append([]readmodel.CartItemReadModel(nil), cart.Items...)
	m.carts[cart.ID] = &cp
	return nil
}

func (m *MockReadStore) GetCart(ctx context.Context, id string) (*readmodel.CartReadModel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.carts[id]
	if !ok {
		return nil, false
	}
	cp := *c
	cp.Items = append([]readmodel.CartItemReadModel(nil), c.Items...)
	return &cp, true
}

func (m *MockReadStore) DeleteCart(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCartCalls = append(m.DeleteCartCalls, id)
	delete(m.carts, id)
	return nil
}

func (m *MockReadStore) SaveOrder(ctx context.Context, order *readmodel.OrderReadModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveOrderCalls = append(m.SaveOrderCalls, order.ID)
	if m.SaveErr != nil {
		return m.SaveErr
	}
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *MockReadStore) GetOrder(ctx context.Context, id string) (*readmodel.OrderReadModel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, false
	}
	cp := *o
	return &cp, true
}

func (m *MockReadStore) ListOrdersByOwner(ctx context.Context, owner string) []*readmodel.OrderReadModel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*readmodel.OrderReadModel
	for _, o := range m.orders {
		if o.Owner == owner {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out
}

func (m *MockReadStore) UpdateOrder(ctx context.Context, id string, fn func(o *readmodel.OrderReadModel)) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateOrderCalls = append(m.UpdateOrderCalls, id)
	o, ok := m.orders[id]
	if !ok {
		return false, nil
	}
	cp := *o
	fn(&cp)
	m.orders[id] = &cp
	return true, nil
}
