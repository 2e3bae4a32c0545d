package main

import (
	"github.com/example/pizza-shop/internal/domain/catalog"
	"github.com/example/pizza-shop/internal/infrastructure/store"
	"github.com/shopspring/decimal"
)

const (
	sizeSmall  = 1
	sizeMedium = 2
	sizeLarge  = 3

	typeTraditional = 1
	typeThin        = 2
)

// demoCatalog is served when the API runs without PostgreSQL.
func demoCatalog() *store.MemoryCatalog {
	sizes := []catalog.PizzaSize{
		{ID: sizeSmall, Label: "Small", Size: 20},
		{ID: sizeMedium, Label: "Medium", Size: 30},
		{ID: sizeLarge, Label: "Large", Size: 40},
	}
	types := []catalog.PizzaType{
		{ID: typeTraditional, Type: "traditional"},
		{ID: typeThin, Type: "thin"},
	}

	cheese := catalog.Ingredient{ID: 1, Name: "Cheese crust", Price: price("179")}
	mozzarella := catalog.Ingredient{ID: 2, Name: "Mozzarella", Price: price("79")}
	jalapeno := catalog.Ingredient{ID: 3, Name: "Jalapeno", Price: price("59")}
	mushrooms := catalog.Ingredient{ID: 4, Name: "Mushrooms", Price: price("59")}
	bacon := catalog.Ingredient{ID: 5, Name: "Bacon", Price: price("99")}

	pizzas := catalog.Category{ID: 1, Name: "Pizzas", Products: []catalog.Product{
		{
			ID: 1, Name: "Pepperoni", CategoryID: 1,
			Items: []catalog.ProductItem{
				pizzaItem(101, 1, sizeSmall, typeTraditional, "399"),
				pizzaItem(102, 1, sizeMedium, typeTraditional, "549"),
				pizzaItem(103, 1, sizeLarge, typeTraditional, "699"),
				pizzaItem(104, 1, sizeMedium, typeThin, "579"),
				pizzaItem(105, 1, sizeLarge, typeThin, "729"),
			},
			Ingredients: []catalog.Ingredient{cheese, mozzarella, jalapeno},
		},
		{
			ID: 2, Name: "Four Cheese", CategoryID: 1,
			Items: []catalog.ProductItem{
				pizzaItem(201, 2, sizeMedium, typeTraditional, "629"),
				pizzaItem(202, 2, sizeLarge, typeTraditional, "789"),
			},
			Ingredients: []catalog.Ingredient{cheese, mozzarella},
		},
		{
			ID: 3, Name: "Country", CategoryID: 1,
			Items: []catalog.ProductItem{
				pizzaItem(301, 3, sizeSmall, typeThin, "449"),
				pizzaItem(302, 3, sizeMedium, typeThin, "599"),
			},
			Ingredients: []catalog.Ingredient{mushrooms, bacon, mozzarella},
		},
	}}

	drinks := catalog.Category{ID: 2, Name: "Drinks", Products: []catalog.Product{
		{ID: 4, Name: "Cola", CategoryID: 2, Items: []catalog.ProductItem{{ID: 401, ProductID: 4, Price: price("129")}}},
		{ID: 5, Name: "Lemonade", CategoryID: 2, Items: []catalog.ProductItem{{ID: 501, ProductID: 5, Price: price("149.50")}}},
	}}

	return store.NewMemoryCatalog([]catalog.Category{pizzas, drinks}, sizes, types)
}

func pizzaItem(id, productID, size, typ int, p string) catalog.ProductItem {
	return catalog.ProductItem{
		ID:        id,
		ProductID: productID,
		Price:     price(p),
		SizeID:    catalog.IntPtr(size),
		TypeID:    catalog.IntPtr(typ),
	}
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
