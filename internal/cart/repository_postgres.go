package cart

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	loadCartQuery = `SELECT items FROM carts WHERE user_id = $1`
	// ensureCartQuery gives FOR UPDATE a row to lock on a first write.
	ensureCartQuery = `
		INSERT INTO carts (user_id, items, updated_at)
		VALUES ($1, '[]', NOW())
		ON CONFLICT (user_id) DO NOTHING
	`
	lockCartQuery   = loadCartQuery + ` FOR UPDATE`
	updateCartQuery = `UPDATE carts SET items = $2, updated_at = NOW() WHERE user_id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Load(ctx context.Context, userID int) ([]Item, error) {
	var raw []byte
	if err := r.db.QueryRowContext(ctx, loadCartQuery, userID).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []Item{}, nil
		}
		return nil, errors.Wrap(err, "load cart")
	}
	return decodeItems(raw)
}

// Update holds the cart row lock from read to write, so processes sharing
// the table apply their changes one after another.
func (r *PostgresRepository) Update(ctx context.Context, userID int, fn func(items []Item) ([]Item, error)) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin cart update")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, ensureCartQuery, userID); err != nil {
		return errors.Wrap(err, "create cart")
	}
	var raw []byte
	if err := tx.QueryRowContext(ctx, lockCartQuery, userID).Scan(&raw); err != nil {
		return errors.Wrap(err, "lock cart")
	}
	items, err := decodeItems(raw)
	if err != nil {
		return err
	}

	next, err := fn(items)
	if err != nil {
		return err
	}
	if next == nil {
		next = []Item{}
	}
	encoded, err := json.Marshal(next)
	if err != nil {
		return errors.Wrap(err, "encode cart")
	}
	if _, err := tx.ExecContext(ctx, updateCartQuery, userID, encoded); err != nil {
		return errors.Wrap(err, "save cart")
	}
	return errors.Wrap(tx.Commit(), "commit cart update")
}

func decodeItems(raw []byte) ([]Item, error) {
	items := make([]Item, 0)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, errors.Wrap(err, "decode cart")
		}
	}
	return items, nil
}
