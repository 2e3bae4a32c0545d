package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventItemAdded       = "ItemAddedToCart"
	EventQuantityUpdated = "CartItemQuantityUpdated"
	EventItemRemoved     = "ItemRemovedFromCart"
	EventCartCleared     = "CartCleared"
)

// IngredientSnapshot is an add-on priced at the moment it entered the cart.
type IngredientSnapshot struct {
	ID    int             `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type ItemAddedToCart struct {
	CartID        string               `json:"cart_id"`
	Owner         string               `json:"owner"`
	CartItemID    string               `json:"cart_item_id"`
	ProductItemID int                  `json:"product_item_id"`
	ProductID     int                  `json:"product_id"`
	ProductName   string               `json:"product_name"`
	ImageURL      string               `json:"image_url,omitempty"`
	SizeID        int                  `json:"size_id,omitempty"`
	TypeID        int                  `json:"type_id,omitempty"`
	Price         decimal.Decimal      `json:"price"`
	Ingredients   []IngredientSnapshot `json:"ingredients"`
	Quantity      int                  `json:"quantity"`
	AddedAt       time.Time            `json:"added_at"`
}

type CartItemQuantityUpdated struct {
	CartID     string    `json:"cart_id"`
	Owner      string    `json:"owner"`
	CartItemID string    `json:"cart_item_id"`
	Quantity   int       `json:"quantity"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ItemRemovedFromCart struct {
	CartID     string    `json:"cart_id"`
	Owner      string    `json:"owner"`
	CartItemID string    `json:"cart_item_id"`
	RemovedAt  time.Time `json:"removed_at"`
}

// CartCleared carries the order id when checkout emptied the cart. When
// Items is set only those quantities leave the cart; otherwise every row
// does.
type CartCleared struct {
	CartID    string        `json:"cart_id"`
	Owner     string        `json:"owner"`
	OrderID   string        `json:"order_id,omitempty"`
	Items     []ClearedItem `json:"items,omitempty"`
	ClearedAt time.Time     `json:"cleared_at"`
}

// ClearedItem is a checked-out quantity of one cart row.
type ClearedItem struct {
	CartItemID string `json:"cart_item_id"`
	Quantity   int    `json:"quantity"`
}
