package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/example/pizza-shop/internal/domain/aggregate"
	"github.com/example/pizza-shop/internal/infrastructure/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateType = "Cart"

var (
	ErrInvalidOwner       = errors.New("cart owner is required")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrInvalidProductItem = errors.New("product_item_id is required")
	ErrCartItemNotFound   = errors.New("cart item not found")
)

// ItemSnapshot is the catalog data frozen into a cart row.
type ItemSnapshot struct {
	ProductItemID int                  `json:"product_item_id"`
	ProductID     int                  `json:"product_id"`
	ProductName   string               `json:"product_name"`
	ImageURL      string               `json:"image_url,omitempty"`
	SizeID        int                  `json:"size_id,omitempty"`
	TypeID        int                  `json:"type_id,omitempty"`
	Price         decimal.Decimal      `json:"price"`
	Ingredients   []IngredientSnapshot `json:"ingredients"`
}

func (s ItemSnapshot) ingredientIDs() []int {
	ids := make([]int, 0, len(s.Ingredients))
	for _, ing := range s.Ingredients {
		ids = append(ids, ing.ID)
	}
	slices.Sort(ids)
	return ids
}

// sameConfiguration reports whether two rows describe the same product item
// with the same add-ons, regardless of add-on order.
func (s ItemSnapshot) sameConfiguration(o ItemSnapshot) bool {
	return s.ProductItemID == o.ProductItemID && slices.Equal(s.ingredientIDs(), o.ingredientIDs())
}

type Item struct {
	ID string `json:"id"`
	ItemSnapshot
	Quantity int `json:"quantity"`
}

type Cart struct {
	ID      string `json:"id"`
	Owner   string `json:"owner"`
	Items   []Item `json:"items"`
	Version int    `json:"version"`
}

func (c *Cart) GetID() string   { return c.ID }
func (c *Cart) GetVersion() int { return c.Version }

func (c *Cart) findItem(itemID string) int {
	return slices.IndexFunc(c.Items, func(i Item) bool { return i.ID == itemID })
}

// ApplyEvent folds one event into the cart state.
func (c *Cart) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventItemAdded:
		var data ItemAddedToCart
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.ID = data.CartID
		c.Owner = data.Owner
		c.Items = append(c.Items, Item{
			ID: data.CartItemID,
			ItemSnapshot: ItemSnapshot{
				ProductItemID: data.ProductItemID,
				ProductID:     data.ProductID,
				ProductName:   data.ProductName,
				ImageURL:      data.ImageURL,
				SizeID:        data.SizeID,
				TypeID:        data.TypeID,
				Price:         data.Price,
				Ingredients:   data.Ingredients,
			},
			Quantity: data.Quantity,
		})
	case EventQuantityUpdated:
		var data CartItemQuantityUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if i := c.findItem(data.CartItemID); i >= 0 {
			c.Items[i].Quantity = data.Quantity
		}
	case EventItemRemoved:
		var data ItemRemovedFromCart
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if i := c.findItem(data.CartItemID); i >= 0 {
			c.Items = slices.Delete(c.Items, i, i+1)
		}
	case EventCartCleared:
		var data CartCleared
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.ID = data.CartID
		c.Owner = data.Owner
		if len(data.Items) == 0 {
			c.Items = nil
			break
		}
		for _, cleared := range data.Items {
			i := c.findItem(cleared.CartItemID)
			if i < 0 {
				continue
			}
			c.Items[i].Quantity -= cleared.Quantity
			if c.Items[i].Quantity <= 0 {
				c.Items = slices.Delete(c.Items, i, i+1)
			}
		}
	}
	c.Version = event.Version
	return nil
}

// maxAttempts bounds how often a command is replayed against a freshly
// loaded cart after losing a version race.
const maxAttempts = 3

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// GetCartID returns the aggregate id of the owner's cart. Owners are user
// ids or anonymous cart tokens.
func GetCartID(owner string) string {
	return "cart-" + owner
}

func (s *Service) loadCart(ctx context.Context, owner string) (*Cart, error) {
	if owner == "" {
		return nil, ErrInvalidOwner
	}
	cartID := GetCartID(owner)
	c, _, err := aggregate.LoadAggregate(ctx, s.eventStore, cartID, func() *Cart {
		return &Cart{ID: cartID, Owner: owner}
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// mutate loads the cart and runs fn against it, reloading and running fn
// again when another writer appended first.
func (s *Service) mutate(ctx context.Context, owner string, fn func(c *Cart) error) error {
	for attempt := 1; ; attempt++ {
		c, err := s.loadCart(ctx, owner)
		if err != nil {
			return err
		}
		err = fn(c)
		if errors.Is(err, store.ErrVersionConflict) && attempt < maxAttempts {
			log.Printf("[Cart] Version conflict on %s, retrying (%d/%d)", c.ID, attempt, maxAttempts)
			continue
		}
		return err
	}
}

// Get returns the owner's cart; an owner without history has an empty cart.
func (s *Service) Get(ctx context.Context, owner string) (*Cart, error) {
	return s.loadCart(ctx, owner)
}

// AddItem adds a configured item. A row with the same product item and the
// same add-ons is topped up instead of duplicated. It returns the row id.
func (s *Service) AddItem(ctx context.Context, owner string, snapshot ItemSnapshot, quantity int) (string, error) {
	if snapshot.ProductItemID <= 0 {
		return "", ErrInvalidProductItem
	}
	if quantity <= 0 {
		return "", ErrInvalidQuantity
	}

	var itemID string
	err := s.mutate(ctx, owner, func(c *Cart) error {
		for _, existing := range c.Items {
			if !existing.sameConfiguration(snapshot) {
				continue
			}
			itemID = existing.ID
			event := CartItemQuantityUpdated{
				CartID:     c.ID,
				Owner:      owner,
				CartItemID: existing.ID,
				Quantity:   existing.Quantity + quantity,
				UpdatedAt:  time.Now(),
			}
			return aggregate.Record(ctx, s.eventStore, c, AggregateType, EventQuantityUpdated, event)
		}

		ingredients := snapshot.Ingredients
		if ingredients == nil {
			ingredients = []IngredientSnapshot{}
		}
		event := ItemAddedToCart{
			CartID:        c.ID,
			Owner:         owner,
			CartItemID:    uuid.New().String(),
			ProductItemID: snapshot.ProductItemID,
			ProductID:     snapshot.ProductID,
			ProductName:   snapshot.ProductName,
			ImageURL:      snapshot.ImageURL,
			SizeID:        snapshot.SizeID,
			TypeID:        snapshot.TypeID,
			Price:         snapshot.Price,
			Ingredients:   ingredients,
			Quantity:      quantity,
			AddedAt:       time.Now(),
		}
		itemID = event.CartItemID
		return aggregate.Record(ctx, s.eventStore, c, AggregateType, EventItemAdded, event)
	})
	if err != nil {
		return "", err
	}
	return itemID, nil
}

// UpdateQuantity sets the quantity of one row.
func (s *Service) UpdateQuantity(ctx context.Context, owner, itemID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return s.mutate(ctx, owner, func(c *Cart) error {
		i := c.findItem(itemID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrCartItemNotFound, itemID)
		}
		if c.Items[i].Quantity == quantity {
			return nil
		}

		event := CartItemQuantityUpdated{
			CartID:     c.ID,
			Owner:      owner,
			CartItemID: itemID,
			Quantity:   quantity,
			UpdatedAt:  time.Now(),
		}
		return aggregate.Record(ctx, s.eventStore, c, AggregateType, EventQuantityUpdated, event)
	})
}

func (s *Service) RemoveItem(ctx context.Context, owner, itemID string) error {
	return s.mutate(ctx, owner, func(c *Cart) error {
		if c.findItem(itemID) < 0 {
			return fmt.Errorf("%w: %s", ErrCartItemNotFound, itemID)
		}

		event := ItemRemovedFromCart{
			CartID:     c.ID,
			Owner:      owner,
			CartItemID: itemID,
			RemovedAt:  time.Now(),
		}
		return aggregate.Record(ctx, s.eventStore, c, AggregateType, EventItemRemoved, event)
	})
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, owner string) error {
	return s.mutate(ctx, owner, func(c *Cart) error {
		event := CartCleared{
			CartID:    c.ID,
			Owner:     owner,
			ClearedAt: time.Now(),
		}
		return aggregate.Record(ctx, s.eventStore, c, AggregateType, EventCartCleared, event)
	})
}

// CheckOut takes the ordered rows out of the cart. Quantities added after
// the order was built stay behind, as do rows the order never saw.
func (s *Service) CheckOut(ctx context.Context, owner, orderID string, ordered []Item) error {
	if len(ordered) == 0 {
		return nil
	}
	cleared := make([]ClearedItem, 0, len(ordered))
	for _, item := range ordered {
		cleared = append(cleared, ClearedItem{CartItemID: item.ID, Quantity: item.Quantity})
	}
	return s.mutate(ctx, owner, func(c *Cart) error {
		event := CartCleared{
			CartID:    c.ID,
			Owner:     owner,
			OrderID:   orderID,
			Items:     cleared,
			ClearedAt: time.Now(),
		}
		return aggregate.Record(ctx, s.eventStore, c, AggregateType, EventCartCleared, event)
	})
}
