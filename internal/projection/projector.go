package projection

import (
	"context"
	"encoding/json"
	"log"
	"slices"
	"time"

	"github.com/example/pizza-shop/internal/domain/cart"
	"github.com/example/pizza-shop/internal/domain/order"
	"github.com/example/pizza-shop/internal/infrastructure/store"
	"github.com/example/pizza-shop/internal/pricing"
	"github.com/example/pizza-shop/internal/readmodel"
)

// Projector keeps the cart and order read models in step with the event
// stream.
type Projector struct {
	readStore store.ReadStoreInterface
}

func NewProjector(readStore store.ReadStoreInterface) *Projector {
	return &Projector{readStore: readStore}
}

// HandleEvent decodes a message from the event bus and projects it.
func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}
	return p.Project(ctx, event)
}

// Project applies one stored event. Unknown aggregates and event types are
// ignored.
func (p *Projector) Project(ctx context.Context, event store.Event) error {
	log.Printf("[Projector] Received event: %s (aggregate: %s)", event.EventType, event.AggregateType)

	switch event.AggregateType {
	case cart.AggregateType:
		return p.handleCartEvent(ctx, event)
	case order.AggregateType:
		return p.handleOrderEvent(ctx, event)
	}
	return nil
}

func (p *Projector) loadCart(ctx context.Context, cartID, owner string) *readmodel.CartReadModel {
	if c, ok := p.readStore.GetCart(ctx, cartID); ok {
		return c
	}
	return &readmodel.CartReadModel{ID: cartID, Owner: owner, Items: []readmodel.CartItemReadModel{}}
}

func (p *Projector) saveCart(ctx context.Context, c *readmodel.CartReadModel) error {
	if err := c.Recalculate(); err != nil {
		log.Printf("[Projector] Cart %s has unpriced lines: %v", c.ID, err)
	}
	return p.readStore.SaveCart(ctx, c)
}

func (p *Projector) handleCartEvent(ctx context.Context, event store.Event) error {
	switch event.EventType {
	case cart.EventItemAdded:
		var e cart.ItemAddedToCart
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		c := p.loadCart(ctx, e.CartID, e.Owner)
		if slices.ContainsFunc(c.Items, func(i readmodel.CartItemReadModel) bool { return i.ID == e.CartItemID }) {
			return nil
		}

		item := readmodel.CartItemReadModel{
			ID:            e.CartItemID,
			ProductItemID: e.ProductItemID,
			ProductID:     e.ProductID,
			Name:          e.ProductName,
			ImageURL:      e.ImageURL,
			SizeID:        e.SizeID,
			TypeID:        e.TypeID,
			Price:         pricing.Price(e.Price),
			Ingredients:   make([]readmodel.CartIngredientReadModel, 0, len(e.Ingredients)),
			Quantity:      e.Quantity,
		}
		for _, ing := range e.Ingredients {
			item.Ingredients = append(item.Ingredients, readmodel.CartIngredientReadModel{
				ID:    ing.ID,
				Name:  ing.Name,
				Price: pricing.Price(ing.Price),
			})
		}
		c.Items = append(c.Items, item)
		c.UpdatedAt = e.AddedAt
		return p.saveCart(ctx, c)

	case cart.EventQuantityUpdated:
		var e cart.CartItemQuantityUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		c := p.loadCart(ctx, e.CartID, e.Owner)
		for i := range c.Items {
			if c.Items[i].ID == e.CartItemID {
				c.Items[i].Quantity = e.Quantity
			}
		}
		c.UpdatedAt = e.UpdatedAt
		return p.saveCart(ctx, c)

	case cart.EventItemRemoved:
		var e cart.ItemRemovedFromCart
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		c := p.loadCart(ctx, e.CartID, e.Owner)
		c.Items = slices.DeleteFunc(c.Items, func(i readmodel.CartItemReadModel) bool {
			return i.ID == e.CartItemID
		})
		c.UpdatedAt = e.RemovedAt
		return p.saveCart(ctx, c)

	case cart.EventCartCleared:
		var e cart.CartCleared
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		if len(e.Items) == 0 {
			return p.readStore.DeleteCart(ctx, e.CartID)
		}
		c := p.loadCart(ctx, e.CartID, e.Owner)
		for _, cleared := range e.Items {
			for i := range c.Items {
				if c.Items[i].ID == cleared.CartItemID {
					c.Items[i].Quantity -= cleared.Quantity
				}
			}
		}
		c.Items = slices.DeleteFunc(c.Items, func(i readmodel.CartItemReadModel) bool {
			return i.Quantity <= 0
		})
		if len(c.Items) == 0 {
			return p.readStore.DeleteCart(ctx, e.CartID)
		}
		c.UpdatedAt = e.ClearedAt
		return p.saveCart(ctx, c)
	}
	return nil
}

func (p *Projector) handleOrderEvent(ctx context.Context, event store.Event) error {
	switch event.EventType {
	case order.EventOrderPlaced:
		var e order.OrderPlaced
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.readStore.SaveOrder(ctx, orderReadModel(e))

	case order.EventOrderSucceeded:
		var e order.OrderSucceeded
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateStatus(ctx, e.OrderID, order.StatusSucceeded, e.SucceededAt)

	case order.EventOrderCancelled:
		var e order.OrderCancelled
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		return p.updateStatus(ctx, e.OrderID, order.StatusCancelled, e.CancelledAt)
	}
	return nil
}

func (p *Projector) updateStatus(ctx context.Context, orderID string, status order.Status, at time.Time) error {
	found, err := p.readStore.UpdateOrder(ctx, orderID, func(o *readmodel.OrderReadModel) {
		o.Status = string(status)
		o.UpdatedAt = at
	})
	if err != nil {
		return err
	}
	if !found {
		log.Printf("[Projector] Order %s not projected yet, dropping %s", orderID, status)
	}
	return nil
}

func orderReadModel(e order.OrderPlaced) *readmodel.OrderReadModel {
	items := make([]readmodel.CartItemReadModel, 0, len(e.Items))
	for _, it := range e.Items {
		row := readmodel.CartItemReadModel{
			ID:            it.CartItemID,
			ProductItemID: it.ProductItemID,
			ProductID:     it.ProductID,
			Name:          it.Name,
			SizeID:        it.SizeID,
			TypeID:        it.TypeID,
			Price:         it.Price,
			Ingredients:   make([]readmodel.CartIngredientReadModel, 0, len(it.Ingredients)),
			Quantity:      it.Quantity,
		}
		for _, ing := range it.Ingredients {
			row.Ingredients = append(row.Ingredients, readmodel.CartIngredientReadModel{
				ID:    ing.ID,
				Name:  ing.Name,
				Price: ing.Price,
			})
		}
		if lt, err := pricing.CartLineTotal(row.Line()); err == nil {
			row.LineTotal = pricing.Price(lt)
		}
		items = append(items, row)
	}

	c := e.Contact
	return &readmodel.OrderReadModel{
		ID:     e.OrderID,
		Owner:  e.Owner,
		UserID: e.UserID,
		Contact: readmodel.ContactReadModel{
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Email:     c.Email,
			Phone:     c.Phone,
			Address:   c.Address,
			Comment:   c.Comment,
		},
		Items:       items,
		ItemsTotal:  e.ItemsTotal,
		DeliveryFee: e.DeliveryFee,
		Total:       e.Total,
		Status:      string(order.StatusPending),
		CreatedAt:   e.PlacedAt,
		UpdatedAt:   e.PlacedAt,
	}
}
