package address

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/wichananm65/food-order-backend/internal/apperr"
)

// PostgresRepository stores addresses in the addresses table. A partial
// unique index on (user_id) WHERE is_default backs the single-default rule.
type PostgresRepository struct {
	db *sql.DB
}

const (
	addressColumns = `id, user_id, label, street, city, zip_code, instructions, is_default, created_at, updated_at`

	listAddressesQuery = `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 ORDER BY id`
	getAddressQuery    = `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 AND id = $2`
	clearDefaultQuery  = `UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND is_default`
	insertAddressQuery = `
		INSERT INTO addresses (user_id, label, street, city, zip_code, instructions, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING ` + addressColumns
	updateAddressQuery = `
		UPDATE addresses
		SET label = $3, street = $4, city = $5, zip_code = $6, instructions = $7, is_default = $8, updated_at = NOW()
		WHERE user_id = $1 AND id = $2
		RETURNING ` + addressColumns
	deleteAddressQuery     = `DELETE FROM addresses WHERE user_id = $1 AND id = $2`
	setDefaultAddressQuery = `UPDATE addresses SET is_default = TRUE, updated_at = NOW() WHERE user_id = $1 AND id = $2`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID int) ([]Address, error) {
	rows, err := r.db.QueryContext(ctx, listAddressesQuery, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list addresses")
	}
	defer rows.Close()

	out := make([]Address, 0)
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, errors.Wrap(rows.Err(), "list addresses")
}

func (r *PostgresRepository) Get(ctx context.Context, userID, addressID int) (Address, error) {
	a, err := scanAddress(r.db.QueryRowContext(ctx, getAddressQuery, userID, addressID))
	if errors.Is(err, sql.ErrNoRows) {
		return Address{}, apperr.NotFound("address", addressID)
	}
	return a, err
}

func (r *PostgresRepository) Create(ctx context.Context, a Address) (Address, error) {
	var out Address
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if a.IsDefault {
			if _, err := tx.ExecContext(ctx, clearDefaultQuery, a.UserID); err != nil {
				return errors.Wrap(err, "clear default address")
			}
		}
		var err error
		out, err = scanAddress(tx.QueryRowContext(ctx, insertAddressQuery,
			a.UserID, a.Label, a.Street, a.City, a.ZipCode, a.Instructions, a.IsDefault))
		return err
	})
	return out, err
}

func (r *PostgresRepository) Update(ctx context.Context, a Address) (Address, error) {
	var out Address
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if a.IsDefault {
			if _, err := tx.ExecContext(ctx, clearDefaultQuery, a.UserID); err != nil {
				return errors.Wrap(err, "clear default address")
			}
		}
		var err error
		out, err = scanAddress(tx.QueryRowContext(ctx, updateAddressQuery,
			a.UserID, a.ID, a.Label, a.Street, a.City, a.ZipCode, a.Instructions, a.IsDefault))
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("address", a.ID)
		}
		return err
	})
	return out, err
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, addressID int) error {
	res, err := r.db.ExecContext(ctx, deleteAddressQuery, userID, addressID)
	if err != nil {
		return errors.Wrap(err, "delete address")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("address", addressID)
	}
	return nil
}

func (r *PostgresRepository) SetDefault(ctx context.Context, userID, addressID int) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, clearDefaultQuery, userID); err != nil {
			return errors.Wrap(err, "clear default address")
		}
		res, err := tx.ExecContext(ctx, setDefaultAddressQuery, userID, addressID)
		if err != nil {
			return errors.Wrap(err, "set default address")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFound("address", addressID)
		}
		return nil
	})
}

func (r *PostgresRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "commit tx")
}

func scanAddress(row rowScanner) (Address, error) {
	var (
		a            Address
		label        sql.NullString
		instructions sql.NullString
	)
	err := row.Scan(&a.ID, &a.UserID, &label, &a.Street, &a.City, &a.ZipCode, &instructions, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Address{}, err
	}
	a.Label = label.String
	a.Instructions = instructions.String
	return a, nil
}
