package query

// Re-export read models so API code depends on query only
import "github.com/example/pizza-shop/internal/readmodel"

type CartIngredientReadModel = readmodel.CartIngredientReadModel
type CartItemReadModel = readmodel.CartItemReadModel
type CartReadModel = readmodel.CartReadModel
type ContactReadModel = readmodel.ContactReadModel
type OrderReadModel = readmodel.OrderReadModel
