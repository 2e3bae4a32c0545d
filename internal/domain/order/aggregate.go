package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/example/pizza-shop/internal/domain/aggregate"
	"github.com/example/pizza-shop/internal/infrastructure/store"
	"github.com/example/pizza-shop/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateType = "Order"

type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusCancelled Status = "cancelled"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrEmptyOrder     = errors.New("order must have at least one item")
	ErrInvalidStatus  = errors.New("invalid order status transition")
	ErrOrderCancelled = errors.New("order is already cancelled")
	ErrOrderCompleted = errors.New("order is already completed")
)

var validTransitions = map[Status][]Status{
	StatusPending:   {StatusSucceeded, StatusCancelled},
	StatusSucceeded: {},
	StatusCancelled: {},
}

// IngredientLine is an add-on of an ordered item.
type IngredientLine struct {
	ID    int                 `json:"id"`
	Name  string              `json:"name"`
	Price decimal.NullDecimal `json:"price"`
}

// Item is a cart row copied into the order at checkout.
type Item struct {
	CartItemID    string              `json:"cart_item_id"`
	ProductItemID int                 `json:"product_item_id"`
	ProductID     int                 `json:"product_id"`
	Name          string              `json:"name"`
	SizeID        int                 `json:"size_id,omitempty"`
	TypeID        int                 `json:"type_id,omitempty"`
	Price         decimal.NullDecimal `json:"price"`
	Ingredients   []IngredientLine    `json:"ingredients"`
	Quantity      int                 `json:"quantity"`
}

// Line converts the item for the pricing package.
func (i Item) Line() pricing.Line {
	line := pricing.Line{ItemPrice: i.Price, Quantity: i.Quantity}
	for _, ing := range i.Ingredients {
		line.Ingredients = append(line.Ingredients, pricing.IngredientPrice{ID: ing.ID, Price: ing.Price})
	}
	return line
}

type Order struct {
	ID          string          `json:"id"`
	Owner       string          `json:"owner"`
	UserID      string          `json:"user_id,omitempty"`
	Contact     Contact         `json:"contact"`
	Items       []Item          `json:"items"`
	ItemsTotal  decimal.Decimal `json:"items_total"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Total       decimal.Decimal `json:"total"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Version     int             `json:"version"`
}

func (o *Order) GetID() string   { return o.ID }
func (o *Order) GetVersion() int { return o.Version }

// CanTransitionTo checks the status machine.
func (o *Order) CanTransitionTo(target Status) bool {
	return slices.Contains(validTransitions[o.Status], target)
}

func (o *Order) transitionError(target Status) error {
	switch o.Status {
	case StatusCancelled:
		return ErrOrderCancelled
	case StatusSucceeded:
		return ErrOrderCompleted
	default:
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidStatus, o.Status, target)
	}
}

func (o *Order) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventOrderPlaced:
		var data OrderPlaced
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.ID = data.OrderID
		o.Owner = data.Owner
		o.UserID = data.UserID
		o.Contact = data.Contact
		o.Items = data.Items
		o.ItemsTotal = data.ItemsTotal
		o.DeliveryFee = data.DeliveryFee
		o.Total = data.Total
		o.Status = StatusPending
		o.CreatedAt = data.PlacedAt
		o.UpdatedAt = data.PlacedAt
	case EventOrderSucceeded:
		var data OrderSucceeded
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Status = StatusSucceeded
		o.UpdatedAt = data.SucceededAt
	case EventOrderCancelled:
		var data OrderCancelled
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Status = StatusCancelled
		o.UpdatedAt = data.CancelledAt
	}
	o.Version = event.Version
	return nil
}

// PlaceRequest is everything checkout needs to create an order.
type PlaceRequest struct {
	Owner   string
	UserID  string
	Contact Contact
	Items   []Item
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

func (s *Service) loadOrder(ctx context.Context, orderID string) (*Order, error) {
	o, found, err := aggregate.LoadAggregate(ctx, s.eventStore, orderID, func() *Order {
		return &Order{}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// Get rebuilds the order from its events.
func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	return s.loadOrder(ctx, orderID)
}

// Place validates the contact, prices the items with the delivery fee and
// records the order as pending.
func (s *Service) Place(ctx context.Context, req PlaceRequest, deliveryFee decimal.Decimal) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	contact := req.Contact.Normalize()
	if err := contact.Validate(); err != nil {
		return nil, err
	}

	lines := make([]pricing.Line, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, item.Line())
	}
	totals, err := pricing.Breakdown(lines, deliveryFee)
	if err != nil {
		return nil, fmt.Errorf("price order: %w", err)
	}

	o := &Order{ID: uuid.New().String()}
	event := OrderPlaced{
		OrderID:     o.ID,
		Owner:       req.Owner,
		UserID:      req.UserID,
		Contact:     contact,
		Items:       req.Items,
		ItemsTotal:  totals.Items,
		DeliveryFee: totals.Delivery,
		Total:       totals.Total,
		PlacedAt:    time.Now(),
	}
	if err := aggregate.Record(ctx, s.eventStore, o, AggregateType, EventOrderPlaced, event); err != nil {
		return nil, err
	}
	return o, nil
}

// MarkSucceeded completes a pending order.
func (s *Service) MarkSucceeded(ctx context.Context, orderID string) error {
	o, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !o.CanTransitionTo(StatusSucceeded) {
		return o.transitionError(StatusSucceeded)
	}

	event := OrderSucceeded{
		OrderID:     orderID,
		SucceededAt: time.Now(),
	}
	return aggregate.Record(ctx, s.eventStore, o, AggregateType, EventOrderSucceeded, event)
}

// Cancel cancels a pending order.
func (s *Service) Cancel(ctx context.Context, orderID, reason string) error {
	o, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !o.CanTransitionTo(StatusCancelled) {
		return o.transitionError(StatusCancelled)
	}

	event := OrderCancelled{
		OrderID:     orderID,
		Reason:      reason,
		CancelledAt: time.Now(),
	}
	return aggregate.Record(ctx, s.eventStore, o, AggregateType, EventOrderCancelled, event)
}
