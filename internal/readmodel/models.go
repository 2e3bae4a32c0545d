package readmodel

import (
	"time"

	"github.com/example/pizza-shop/internal/pricing"
	"github.com/shopspring/decimal"
)

// CartIngredientReadModel is an add-on frozen into a cart row.
type CartIngredientReadModel struct {
	ID    int                 `json:"id"`
	Name  string              `json:"name"`
	Price decimal.NullDecimal `json:"price"`
}

// CartItemReadModel is one cart row. Prices are copied from the catalog when
// the row is added and are not refreshed afterwards.
type CartItemReadModel struct {
	ID            string                    `json:"id"`
	ProductItemID int                       `json:"product_item_id"`
	ProductID     int                       `json:"product_id"`
	Name          string                    `json:"name"`
	ImageURL      string                    `json:"image_url,omitempty"`
	SizeID        int                       `json:"size_id,omitempty"`
	TypeID        int                       `json:"type_id,omitempty"`
	Price         decimal.NullDecimal       `json:"price"`
	Ingredients   []CartIngredientReadModel `json:"ingredients"`
	Quantity      int                       `json:"quantity"`
	LineTotal     decimal.NullDecimal       `json:"line_total"`
}

// Line converts the row for the pricing package.
func (i CartItemReadModel) Line() pricing.Line {
	line := pricing.Line{
		ItemPrice: i.Price,
		Quantity:  i.Quantity,
	}
	for _, ing := range i.Ingredients {
		line.Ingredients = append(line.Ingredients, pricing.IngredientPrice{ID: ing.ID, Price: ing.Price})
	}
	return line
}

// CartReadModel is the read model for a shopping cart. Total never includes
// delivery and is null while any row is unpriced.
type CartReadModel struct {
	ID        string              `json:"id"`
	Owner     string              `json:"owner"`
	Items     []CartItemReadModel `json:"items"`
	Total     decimal.NullDecimal `json:"total"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Lines returns the pricing view of every row.
func (c *CartReadModel) Lines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, item.Line())
	}
	return lines
}

// Recalculate refreshes line totals and the cart total. Rows whose price
// cannot be computed get a null line total, which makes Total null too.
func (c *CartReadModel) Recalculate() error {
	total := decimal.Zero
	var firstErr error
	for i := range c.Items {
		lt, err := pricing.CartLineTotal(c.Items[i].Line())
		if err != nil {
			c.Items[i].LineTotal = decimal.NullDecimal{}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		c.Items[i].LineTotal = pricing.Price(lt)
		total = total.Add(lt)
	}
	if firstErr != nil {
		c.Total = decimal.NullDecimal{}
		return firstErr
	}
	c.Total = pricing.Price(total)
	return nil
}

// ContactReadModel holds delivery details captured at checkout.
type ContactReadModel struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Comment   string `json:"comment,omitempty"`
}

// OrderReadModel is the read model for orders.
type OrderReadModel struct {
	ID          string              `json:"id"`
	Owner       string              `json:"owner"`
	UserID      string              `json:"user_id,omitempty"`
	Contact     ContactReadModel    `json:"contact"`
	Items       []CartItemReadModel `json:"items"`
	ItemsTotal  decimal.Decimal     `json:"items_total"`
	DeliveryFee decimal.Decimal     `json:"delivery_fee"`
	Total       decimal.Decimal     `json:"total"`
	Status      string              `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}
