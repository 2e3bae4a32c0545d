package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchema_CoversEveryTable(t *testing.T) {
	for _, table := range []string{
		"events", "aggregate_snapshots", "read_carts", "read_orders",
		"categories", "pizza_sizes", "pizza_types", "products",
		"product_items", "ingredients", "product_ingredients",
	} {
		assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
}

func TestSchema_Idempotent(t *testing.T) {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		assert.Contains(t, stmt, "IF NOT EXISTS", stmt)
	}
}

func TestSchema_CartTotalNullable(t *testing.T) {
	start := strings.Index(schemaSQL, "CREATE TABLE IF NOT EXISTS read_carts (")
	end := strings.Index(schemaSQL[start:], ");")
	table := schemaSQL[start : start+end]

	assert.Contains(t, table, "total      NUMERIC(12, 2),")
}
