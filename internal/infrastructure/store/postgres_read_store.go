package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/pizza-shop/internal/readmodel"
)

// PostgresReadStore implements ReadStoreInterface on the read_carts and
// read_orders tables. Rows are stored as JSONB next to NUMERIC totals.
type PostgresReadStore struct {
	db *sql.DB
}

func NewPostgresReadStore(db *sql.DB) *PostgresReadStore {
	return &PostgresReadStore{db: db}
}

func (rs *PostgresReadStore) SaveCart(ctx context.Context, c *readmodel.CartReadModel) error {
	itemsJSON, err := json.Marshal(c.Items)
	if err != nil {
		return err
	}
	updatedAt := c.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	_, err = rs.db.ExecContext(ctx, `
		INSERT INTO read_carts (id, owner, items, total, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			items = EXCLUDED.items,
			total = EXCLUDED.total,
			updated_at = EXCLUDED.updated_at
	`, c.ID, c.Owner, itemsJSON, c.Total, updatedAt)
	if err != nil {
		return fmt.Errorf("save cart %s: %w", c.ID, err)
	}
	return nil
}

func (rs *PostgresReadStore) GetCart(ctx context.Context, id string) (*readmodel.CartReadModel, bool) {
	var c readmodel.CartReadModel
	var itemsJSON []byte
	err := rs.db.QueryRowContext(ctx, `
		SELECT id, owner, items, total, updated_at FROM read_carts WHERE id = $1
	`, id).Scan(&c.ID, &c.Owner, &itemsJSON, &c.Total, &c.UpdatedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("[PostgresReadStore] Error getting cart: %v", err)
		}
		return nil, false
	}
	if err := json.Unmarshal(itemsJSON, &c.Items); err != nil {
		log.Printf("[PostgresReadStore] Corrupt cart items for %s: %v", id, err)
		return nil, false
	}
	return &c, true
}

func (rs *PostgresReadStore) DeleteCart(ctx context.Context, id string) error {
	_, err := rs.db.ExecContext(ctx, "DELETE FROM read_carts WHERE id = $1", id)
	return err
}

func (rs *PostgresReadStore) SaveOrder(ctx context.Context, o *readmodel.OrderReadModel) error {
	return rs.saveOrder(ctx, rs.db, o)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (rs *PostgresReadStore) saveOrder(ctx context.Context, db execer, o *readmodel.OrderReadModel) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	contactJSON, err := json.Marshal(o.Contact)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO read_orders (id, owner, user_id, contact, items, items_total, delivery_fee, total, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			items = EXCLUDED.items,
			items_total = EXCLUDED.items_total,
			delivery_fee = EXCLUDED.delivery_fee,
			total = EXCLUDED.total,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`, o.ID, o.Owner, o.UserID, contactJSON, itemsJSON, o.ItemsTotal, o.DeliveryFee, o.Total, o.Status, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save order %s: %w", o.ID, err)
	}
	return nil
}

const orderColumns = `id, owner, user_id, contact, items, items_total, delivery_fee, total, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*readmodel.OrderReadModel, error) {
	var o readmodel.OrderReadModel
	var contactJSON, itemsJSON []byte
	err := row.Scan(&o.ID, &o.Owner, &o.UserID, &contactJSON, &itemsJSON,
		&o.ItemsTotal, &o.DeliveryFee, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(contactJSON, &o.Contact); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, err
	}
	return &o, nil
}

func (rs *PostgresReadStore) GetOrder(ctx context.Context, id string) (*readmodel.OrderReadModel, bool) {
	o, err := scanOrder(rs.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM read_orders WHERE id = $1`, id))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("[PostgresReadStore] Error getting order: %v", err)
		}
		return nil, false
	}
	return o, true
}

func (rs *PostgresReadStore) ListOrdersByOwner(ctx context.Context, owner string) []*readmodel.OrderReadModel {
	rows, err := rs.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM read_orders WHERE owner = $1 ORDER BY created_at DESC`, owner)
	if err != nil {
		log.Printf("[PostgresReadStore] Error listing orders: %v", err)
		return nil
	}
	defer rows.Close()

	var orders []*readmodel.OrderReadModel
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Printf("[PostgresReadStore] Error scanning order: %v", err)
			continue
		}
		orders = append(orders, o)
	}
	return orders
}

// UpdateOrder locks the row for the duration of fn.
func (rs *PostgresReadStore) UpdateOrder(ctx context.Context, id string, fn func(o *readmodel.OrderReadModel)) (bool, error) {
	tx, err := rs.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	o, err := scanOrder(tx.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM read_orders WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	fn(o)
	if err := rs.saveOrder(ctx, tx, o); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
