package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/example/pizza-shop/internal/domain/catalog"
	"github.com/example/pizza-shop/internal/filter"
	"github.com/example/pizza-shop/internal/pricing"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// PostgresCatalog reads the product catalog maintained by the admin tools.
type PostgresCatalog struct {
	db *sql.DB
}

func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

// matchingProductsQuery narrows products in SQL with the same clauses as
// filter.Matches: every ingredient, an item in the price range, and any of
// the sizes and types.
const matchingProductsQuery = `
	SELECT p.id
	FROM products p
	WHERE (
		cardinality($1::int[]) = 0 OR (
			SELECT count(DISTINCT pi.ingredient_id)
			FROM product_ingredients pi
			WHERE pi.product_id = p.id AND pi.ingredient_id = ANY($1)
		) = cardinality($1::int[])
	)
	AND EXISTS (
		SELECT 1 FROM product_items i
		WHERE i.product_id = p.id AND i.price BETWEEN $2 AND $3
	)
	AND (
		cardinality($4::int[]) = 0 OR EXISTS (
			SELECT 1 FROM product_items i
			WHERE i.product_id = p.id AND i.size_id = ANY($4)
		)
	)
	AND (
		cardinality($5::int[]) = 0 OR EXISTS (
			SELECT 1 FROM product_items i
			WHERE i.product_id = p.id AND i.pizza_type_id = ANY($5)
		)
	)
	ORDER BY p.id
`

func (pc *PostgresCatalog) ListCategories(ctx context.Context, c filter.Criteria) ([]catalog.Category, error) {
	rows, err := pc.db.QueryContext(ctx, matchingProductsQuery,
		intArray(c.IngredientIDs), c.PriceFrom, c.PriceTo, intArray(c.SizeIDs), intArray(c.TypeIDs))
	if err != nil {
		return nil, fmt.Errorf("query matching products: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	categories, err := pc.loadCategories(ctx, ids)
	if err != nil {
		return nil, err
	}
	return filter.Apply(categories, c), nil
}

func (pc *PostgresCatalog) GetProduct(ctx context.Context, id int) (*catalog.Product, error) {
	categories, err := pc.loadCategories(ctx, []int64{int64(id)})
	if err != nil {
		return nil, err
	}
	for _, cat := range categories {
		for _, p := range cat.Products {
			if p.ID == id {
				return &p, nil
			}
		}
	}
	return nil, fmt.Errorf("product %d: %w", id, catalog.ErrProductNotFound)
}

func (pc *PostgresCatalog) GetProductItem(ctx context.Context, id int) (*catalog.ProductItem, error) {
	row := pc.db.QueryRowContext(ctx, `
		SELECT id, product_id, price, size_id, pizza_type_id
		FROM product_items WHERE id = $1
	`, id)
	item, err := scanProductItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product item %d: %w", id, catalog.ErrProductItemNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (pc *PostgresCatalog) ListSizes(ctx context.Context) ([]catalog.PizzaSize, error) {
	rows, err := pc.db.QueryContext(ctx, `SELECT id, label, size FROM pizza_sizes ORDER BY size`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sizes []catalog.PizzaSize
	for rows.Next() {
		var s catalog.PizzaSize
		if err := rows.Scan(&s.ID, &s.Label, &s.Size); err != nil {
			return nil, err
		}
		sizes = append(sizes, s)
	}
	return sizes, rows.Err()
}

func (pc *PostgresCatalog) ListTypes(ctx context.Context) ([]catalog.PizzaType, error) {
	rows, err := pc.db.QueryContext(ctx, `SELECT id, type FROM pizza_types ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []catalog.PizzaType
	for rows.Next() {
		var t catalog.PizzaType
		if err := rows.Scan(&t.ID, &t.Type); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// loadCategories assembles the given products with their items and
// ingredients, grouped by category in id order.
func (pc *PostgresCatalog) loadCategories(ctx context.Context, productIDs []int64) ([]catalog.Category, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	ids := pq.Array(productIDs)

	rows, err := pc.db.QueryContext(ctx, `
		SELECT c.id, c.name, p.id, p.name, COALESCE(p.image_url, '')
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = ANY($1)
		ORDER BY c.id, p.id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	var categories []catalog.Category
	index := make(map[int][2]int) // product id -> category, product position
	for rows.Next() {
		var catID int
		var catName string
		var p catalog.Product
		if err := rows.Scan(&catID, &catName, &p.ID, &p.Name, &p.ImageURL); err != nil {
			rows.Close()
			return nil, err
		}
		p.CategoryID = catID
		if n := len(categories); n == 0 || categories[n-1].ID != catID {
			categories = append(categories, catalog.Category{ID: catID, Name: catName})
		}
		ci := len(categories) - 1
		categories[ci].Products = append(categories[ci].Products, p)
		index[p.ID] = [2]int{ci, len(categories[ci].Products) - 1}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	product := func(id int) *catalog.Product {
		pos, ok := index[id]
		if !ok {
			return nil
		}
		return &categories[pos[0]].Products[pos[1]]
	}

	itemRows, err := pc.db.QueryContext(ctx, `
		SELECT id, product_id, price, size_id, pizza_type_id
		FROM product_items
		WHERE product_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("query product items: %w", err)
	}
	for itemRows.Next() {
		item, err := scanProductItem(itemRows)
		if err != nil {
			itemRows.Close()
			return nil, err
		}
		if p := product(item.ProductID); p != nil {
			p.Items = append(p.Items, item)
		}
	}
	itemRows.Close()
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	ingRows, err := pc.db.QueryContext(ctx, `
		SELECT pi.product_id, g.id, g.name, COALESCE(g.image_url, ''), g.price
		FROM product_ingredients pi
		JOIN ingredients g ON g.id = pi.ingredient_id
		WHERE pi.product_id = ANY($1)
		ORDER BY pi.product_id, g.id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("query ingredients: %w", err)
	}
	defer ingRows.Close()
	for ingRows.Next() {
		var productID int
		var ing catalog.Ingredient
		var price decimal.NullDecimal
		if err := ingRows.Scan(&productID, &ing.ID, &ing.Name, &ing.ImageURL, &price); err != nil {
			return nil, err
		}
		if !price.Valid {
			return nil, fmt.Errorf("ingredient %d: %w", ing.ID, pricing.ErrMissingPrice)
		}
		ing.Price = price.Decimal
		if p := product(productID); p != nil {
			p.Ingredients = append(p.Ingredients, ing)
		}
	}
	if err := ingRows.Err(); err != nil {
		return nil, err
	}

	for _, cat := range categories {
		for _, p := range cat.Products {
			if _, err := p.Kind(); err != nil {
				log.Printf("[Catalog] Integrity issue: %v", err)
			}
		}
	}
	return categories, nil
}

func scanProductItem(row rowScanner) (catalog.ProductItem, error) {
	var item catalog.ProductItem
	var price decimal.NullDecimal
	var sizeID, typeID sql.NullInt64
	if err := row.Scan(&item.ID, &item.ProductID, &price, &sizeID, &typeID); err != nil {
		return catalog.ProductItem{}, err
	}
	if !price.Valid {
		return catalog.ProductItem{}, fmt.Errorf("product item %d: %w", item.ID, pricing.ErrMissingPrice)
	}
	item.Price = price.Decimal
	if sizeID.Valid {
		item.SizeID = catalog.IntPtr(int(sizeID.Int64))
	}
	if typeID.Valid {
		item.TypeID = catalog.IntPtr(int(typeID.Int64))
	}
	return item, nil
}

// intArray encodes ids for = ANY($n). A nil slice would encode as NULL.
func intArray(ids []int) any {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		out = append(out, int64(id))
	}
	return pq.Array(out)
}
