package command

import "github.com/example/pizza-shop/internal/domain/order"

// Cart Commands
type AddToCart struct {
	Owner         string `json:"-"`
	ProductItemID int    `json:"product_item_id"`
	Ingredients   []int  `json:"ingredients"`
	Quantity      int    `json:"quantity"`
}

type UpdateCartItem struct {
	Owner    string `json:"-"`
	ItemID   string `json:"-"`
	Quantity int    `json:"quantity"`
}

type RemoveCartItem struct {
	Owner  string `json:"-"`
	ItemID string `json:"-"`
}

type ClearCart struct {
	Owner string `json:"-"`
}

// Order Commands
type PlaceOrder struct {
	Owner   string        `json:"-"`
	UserID  string        `json:"-"`
	Contact order.Contact `json:"contact"`
}

type CancelOrder struct {
	OrderID string `json:"-"`
	Reason  string `json:"reason"`
}

type CompleteOrder struct {
	OrderID string `json:"-"`
}
