package user

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"github.com/wichananm65/food-order-backend/internal/address"
	"github.com/wichananm65/food-order-backend/internal/apperr"
	"github.com/wichananm65/food-order-backend/internal/cart"
	"github.com/wichananm65/food-order-backend/internal/order"
)

// PostgresRepository keeps users in the users table and their orders in
// the orders table. Order updates lock the row with SELECT ... FOR UPDATE,
// which serializes concurrent writers to the same order.
type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	userColumns = `id, name, email, phone, password_hash, created_at, updated_at`

	listUsersQuery      = `SELECT ` + userColumns + ` FROM users ORDER BY id`
	getUserByIDQuery    = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	getUserByEmailQuery = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	insertUserQuery     = `
		INSERT INTO users (name, email, phone, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING ` + userColumns
	updateUserQuery = `
		UPDATE users SET name = $2, phone = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	orderColumns = `id, user_id, items, delivery_address, payment_method, status, payment_status, total, delivery_fee, payment_reference, created_at, updated_at`

	insertOrderQuery = `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	findOrderQuery   = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 AND id = $2`
	lockOrderQuery   = findOrderQuery + ` FOR UPDATE`
	listOrdersQuery  = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	updateOrderQuery = `
		UPDATE orders SET status = $3, payment_status = $4, payment_reference = $5, updated_at = $6
		WHERE user_id = $1 AND id = $2`
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, getUserByIDQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, errors.Wrap(err, "get user")
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, getUserByEmailQuery, normalizeEmail(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, errors.Wrap(err, "get user by email")
}

func (r *PostgresRepository) Create(ctx context.Context, u User) (User, error) {
	created, err := scanUser(r.db.QueryRowContext(ctx, insertUserQuery, u.Name, normalizeEmail(u.Email), u.Phone, u.PasswordHash))
	if err != nil {
		if pgCode(err) == uniqueViolation {
			return User{}, ErrEmailExists
		}
		return User{}, errors.Wrap(err, "create user")
	}
	return created, nil
}

func (r *PostgresRepository) Update(ctx context.Context, u User) (User, error) {
	updated, err := scanUser(r.db.QueryRowContext(ctx, updateUserQuery, u.ID, u.Name, u.Phone))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return updated, errors.Wrap(err, "update user")
}

func (r *PostgresRepository) FindUser(ctx context.Context, match func(User) bool) (User, bool, error) {
	rows, err := r.db.QueryContext(ctx, listUsersQuery)
	if err != nil {
		return User{}, false, errors.Wrap(err, "list users")
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return User{}, false, errors.Wrap(err, "scan user")
		}
		if match(u) {
			return u, true, nil
		}
	}
	return User{}, false, errors.Wrap(rows.Err(), "list users")
}

func (r *PostgresRepository) AppendOrder(ctx context.Context, userID int, o order.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "encode order items")
	}
	addr, err := json.Marshal(o.DeliveryAddress)
	if err != nil {
		return errors.Wrap(err, "encode delivery address")
	}
	_, err = r.db.ExecContext(ctx, insertOrderQuery,
		o.ID, userID, items, addr, o.PaymentMethod, o.Status, o.PaymentStatus,
		o.Total, o.DeliveryFee, nullString(o.PaymentReference), o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if pgCode(err) == foreignKeyViolation {
			return ErrNotFound
		}
		return errors.Wrap(err, "insert order")
	}
	return nil
}

// UpdateOrder only writes the fields an order may change after creation.
func (r *PostgresRepository) UpdateOrder(ctx context.Context, userID int, orderID string, mutate func(o *order.Order) error) (order.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return order.Order{}, errors.Wrap(err, "begin order update")
	}
	defer tx.Rollback()

	o, err := scanOrder(tx.QueryRowContext(ctx, lockOrderQuery, userID, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return order.Order{}, apperr.NotFound("order", orderID)
	}
	if err != nil {
		return order.Order{}, errors.Wrap(err, "lock order")
	}
	if err := mutate(&o); err != nil {
		return order.Order{}, err
	}
	if _, err := tx.ExecContext(ctx, updateOrderQuery,
		userID, orderID, o.Status, o.PaymentStatus, nullString(o.PaymentReference), o.UpdatedAt); err != nil {
		return order.Order{}, errors.Wrap(err, "update order")
	}
	if err := tx.Commit(); err != nil {
		return order.Order{}, errors.Wrap(err, "commit order update")
	}
	return o, nil
}

func (r *PostgresRepository) FindOrder(ctx context.Context, userID int, orderID string) (order.Order, bool, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, findOrderQuery, userID, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return order.Order{}, false, nil
	}
	if err != nil {
		return order.Order{}, false, errors.Wrap(err, "find order")
	}
	return o, true, nil
}

func (r *PostgresRepository) ListOrders(ctx context.Context, userID int) ([]order.Order, error) {
	rows, err := r.db.QueryContext(ctx, listOrdersQuery, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	defer rows.Close()

	out := make([]order.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		out = append(out, o)
	}
	return out, errors.Wrap(rows.Err(), "list orders")
}

func scanUser(s rowScanner) (User, error) {
	var u User
	err := s.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func scanOrder(s rowScanner) (order.Order, error) {
	var (
		o         order.Order
		items     []byte
		addr      []byte
		reference sql.NullString
	)
	if err := s.Scan(&o.ID, &o.UserID, &items, &addr, &o.PaymentMethod, &o.Status, &o.PaymentStatus,
		&o.Total, &o.DeliveryFee, &reference, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return order.Order{}, err
	}
	o.Items = make([]cart.Item, 0)
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return order.Order{}, errors.Wrap(err, "decode order items")
	}
	var d address.Delivery
	if err := json.Unmarshal(addr, &d); err != nil {
		return order.Order{}, errors.Wrap(err, "decode delivery address")
	}
	o.DeliveryAddress = d
	o.PaymentReference = reference.String
	return o, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
