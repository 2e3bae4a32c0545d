package command

import (
	"context"
	"fmt"
	"log"

	"github.com/example/pizza-shop/internal/domain/cart"
	"github.com/example/pizza-shop/internal/domain/order"
	"github.com/example/pizza-shop/internal/domain/selection"
	"github.com/example/pizza-shop/internal/infrastructure/store"
	"github.com/example/pizza-shop/internal/pricing"
	"github.com/shopspring/decimal"
)

type Handler struct {
	catalog     store.CatalogReader
	cartSvc     *cart.Service
	orderSvc    *order.Service
	deliveryFee decimal.Decimal
}

// cachedReader is a catalog that may serve stale entries.
type cachedReader interface {
	Source() store.CatalogReader
}

// NewHandler prices commands against the uncached catalog, so add-to-cart
// freezes current prices.
func NewHandler(
	catalog store.CatalogReader,
	cartSvc *cart.Service,
	orderSvc *order.Service,
	deliveryFee decimal.Decimal,
) *Handler {
	if cached, ok := catalog.(cachedReader); ok {
		catalog = cached.Source()
	}
	return &Handler{
		catalog:     catalog,
		cartSvc:     cartSvc,
		orderSvc:    orderSvc,
		deliveryFee: deliveryFee,
	}
}

// DeliveryFee is the fee added at checkout.
func (h *Handler) DeliveryFee() decimal.Decimal {
	return h.deliveryFee
}

// AddToCart freezes the product item and the chosen add-ons into the
// owner's cart. It returns the cart row id.
func (h *Handler) AddToCart(ctx context.Context, cmd AddToCart) (string, error) {
	if cmd.ProductItemID <= 0 {
		return "", cart.ErrInvalidProductItem
	}
	quantity := cmd.Quantity
	if quantity == 0 {
		quantity = 1
	}

	item, err := h.catalog.GetProductItem(ctx, cmd.ProductItemID)
	if err != nil {
		return "", err
	}
	product, err := h.catalog.GetProduct(ctx, item.ProductID)
	if err != nil {
		return "", err
	}
	if _, err := product.Kind(); err != nil {
		return "", err
	}

	// Only the product's own ingredients can be added.
	picked := product.IngredientsByID(cmd.Ingredients)
	if _, err := pricing.ConfiguredItemPrice(item.Price, picked, selection.NewIngredientSet(cmd.Ingredients...)); err != nil {
		return "", fmt.Errorf("product item %d: %w", item.ID, err)
	}

	snapshot := cart.ItemSnapshot{
		ProductItemID: item.ID,
		ProductID:     product.ID,
		ProductName:   product.Name,
		ImageURL:      product.ImageURL,
		SizeID:        item.Size(),
		TypeID:        item.Type(),
		Price:         item.Price,
		Ingredients:   make([]cart.IngredientSnapshot, 0, len(picked)),
	}
	for _, ing := range picked {
		snapshot.Ingredients = append(snapshot.Ingredients, cart.IngredientSnapshot{
			ID:    ing.ID,
			Name:  ing.Name,
			Price: ing.Price,
		})
	}

	// Read Store is updated asynchronously via the projector
	return h.cartSvc.AddItem(ctx, cmd.Owner, snapshot, quantity)
}

func (h *Handler) UpdateCartItem(ctx context.Context, cmd UpdateCartItem) error {
	return h.cartSvc.UpdateQuantity(ctx, cmd.Owner, cmd.ItemID, cmd.Quantity)
}

func (h *Handler) RemoveCartItem(ctx context.Context, cmd RemoveCartItem) error {
	return h.cartSvc.RemoveItem(ctx, cmd.Owner, cmd.ItemID)
}

func (h *Handler) ClearCart(ctx context.Context, cmd ClearCart) error {
	return h.cartSvc.Clear(ctx, cmd.Owner)
}

// PlaceOrder turns the owner's cart into a pending order and takes the
// ordered rows out of the cart. Lines are priced as they were frozen when
// added.
func (h *Handler) PlaceOrder(ctx context.Context, cmd PlaceOrder) (*order.Order, error) {
	c, err := h.cartSvc.Get(ctx, cmd.Owner)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, order.ErrEmptyOrder
	}

	items := make([]order.Item, 0, len(c.Items))
	for _, ci := range c.Items {
		items = append(items, orderItem(ci))
	}

	o, err := h.orderSvc.Place(ctx, order.PlaceRequest{
		Owner:   cmd.Owner,
		UserID:  cmd.UserID,
		Contact: cmd.Contact,
		Items:   items,
	}, h.deliveryFee)
	if err != nil {
		return nil, err
	}

	if err := h.cartSvc.CheckOut(ctx, cmd.Owner, o.ID, c.Items); err != nil {
		log.Printf("[Order] Order %s placed but cart %s was not cleared: %v", o.ID, c.ID, err)
	}
	return o, nil
}

func (h *Handler) CancelOrder(ctx context.Context, cmd CancelOrder) error {
	return h.orderSvc.Cancel(ctx, cmd.OrderID, cmd.Reason)
}

// CompleteOrder marks a pending order as paid and delivered.
func (h *Handler) CompleteOrder(ctx context.Context, cmd CompleteOrder) error {
	return h.orderSvc.MarkSucceeded(ctx, cmd.OrderID)
}

func orderItem(ci cart.Item) order.Item {
	item := order.Item{
		CartItemID:    ci.ID,
		ProductItemID: ci.ProductItemID,
		ProductID:     ci.ProductID,
		Name:          ci.ProductName,
		SizeID:        ci.SizeID,
		TypeID:        ci.TypeID,
		Price:         pricing.Price(ci.Price),
		Ingredients:   make([]order.IngredientLine, 0, len(ci.Ingredients)),
		Quantity:      ci.Quantity,
	}
	for _, ing := range ci.Ingredients {
		item.Ingredients = append(item.Ingredients, order.IngredientLine{
			ID:    ing.ID,
			Name:  ing.Name,
			Price: pricing.Price(ing.Price),
		})
	}
	return item
}
