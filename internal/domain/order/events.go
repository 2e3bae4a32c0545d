package order

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced    = "OrderPlaced"
	EventOrderSucceeded = "OrderSucceeded"
	EventOrderCancelled = "OrderCancelled"
)

type OrderPlaced struct {
	OrderID     string          `json:"order_id"`
	Owner       string          `json:"owner"`
	UserID      string          `json:"user_id,omitempty"`
	Contact     Contact         `json:"contact"`
	Items       []Item          `json:"items"`
	ItemsTotal  decimal.Decimal `json:"items_total"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Total       decimal.Decimal `json:"total"`
	PlacedAt    time.Time       `json:"placed_at"`
}

type OrderSucceeded struct {
	OrderID     string    `json:"order_id"`
	SucceededAt time.Time `json:"succeeded_at"`
}

type OrderCancelled struct {
	OrderID     string    `json:"order_id"`
	Reason      string    `json:"reason"`
	CancelledAt time.Time `json:"cancelled_at"`
}
