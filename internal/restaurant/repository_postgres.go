package restaurant

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/wichananm65/food-order-backend/internal/apperr"
)

// PostgresRepository reads the catalog tables through sqlx.
type PostgresRepository struct {
	db *sqlx.DB
}

const (
	restaurantColumns = `r.id, r.name, r.image, r.cover_image, r.rating, r.cuisine, r.delivery_time, r.min_order, r.featured`
	menuItemColumns   = `m.id, m.restaurant_id, r.name AS restaurant_name, m.name, m.description, m.price, m.image, m.category, m.featured`

	listRestaurantsQuery = `
		SELECT ` + restaurantColumns + `
		FROM restaurants r
		WHERE ($1 = '' OR r.name ILIKE '%' || $1 || '%' OR r.cuisine ILIKE '%' || $1 || '%'
			OR EXISTS (SELECT 1 FROM menu_items m WHERE m.restaurant_id = r.id AND m.name ILIKE '%' || $1 || '%'))
		  AND (cardinality($2::text[]) = 0 OR lower(r.cuisine) = ANY($2::text[]))
		ORDER BY r.id
		LIMIT NULLIF($3, 0) OFFSET $4
	`
	getRestaurantQuery = `SELECT ` + restaurantColumns + ` FROM restaurants r WHERE r.id = $1`
	listMenuQuery      = `
		SELECT ` + menuItemColumns + `
		FROM menu_items m JOIN restaurants r ON r.id = m.restaurant_id
		WHERE m.restaurant_id = $1
		ORDER BY m.category, m.id
	`
	getMenuItemQuery = `
		SELECT ` + menuItemColumns + `
		FROM menu_items m JOIN restaurants r ON r.id = m.restaurant_id
		WHERE m.id = $1
	`
	featuredItemsQuery = `
		SELECT ` + menuItemColumns + `
		FROM menu_items m JOIN restaurants r ON r.id = m.restaurant_id
		WHERE m.featured
		ORDER BY m.id
	`
	listCuisinesQuery = `
		SELECT c.id, c.name, c.image, COUNT(r.id) AS count
		FROM cuisines c LEFT JOIN restaurants r ON lower(r.cuisine) = lower(c.name)
		GROUP BY c.id, c.name, c.image
		ORDER BY c.id
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: sqlx.NewDb(db, "pgx")}
}

func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]Restaurant, error) {
	cuisines := make([]string, 0, len(f.Cuisines))
	for _, c := range f.Cuisines {
		cuisines = append(cuisines, strings.ToLower(c))
	}
	out := make([]Restaurant, 0)
	if err := r.db.SelectContext(ctx, &out, listRestaurantsQuery, strings.TrimSpace(f.Query), pq.Array(cuisines), f.Limit, f.Offset); err != nil {
		return nil, errors.Wrap(err, "list restaurants")
	}
	return out, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int) (Restaurant, error) {
	var rs Restaurant
	if err := r.db.GetContext(ctx, &rs, getRestaurantQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Restaurant{}, apperr.NotFound("restaurant", id)
		}
		return Restaurant{}, errors.Wrap(err, "get restaurant")
	}
	menu := make([]MenuItem, 0)
	if err := r.db.SelectContext(ctx, &menu, listMenuQuery, id); err != nil {
		return Restaurant{}, errors.Wrap(err, "list menu")
	}
	rs.Menu = menu
	return rs, nil
}

func (r *PostgresRepository) MenuItem(ctx context.Context, id int) (MenuItem, error) {
	var m MenuItem
	if err := r.db.GetContext(ctx, &m, getMenuItemQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return MenuItem{}, apperr.NotFound("menu item", id)
		}
		return MenuItem{}, errors.Wrap(err, "get menu item")
	}
	return m, nil
}

func (r *PostgresRepository) FeaturedItems(ctx context.Context) ([]MenuItem, error) {
	out := make([]MenuItem, 0)
	if err := r.db.SelectContext(ctx, &out, featuredItemsQuery); err != nil {
		return nil, errors.Wrap(err, "list featured items")
	}
	return out, nil
}

func (r *PostgresRepository) Cuisines(ctx context.Context) ([]Cuisine, error) {
	out := make([]Cuisine, 0)
	if err := r.db.SelectContext(ctx, &out, listCuisinesQuery); err != nil {
		return nil, errors.Wrap(err, "list cuisines")
	}
	return out, nil
}

const (
	countRestaurantsQuery = `SELECT COUNT(*) FROM restaurants`
	insertRestaurantQuery = `
		INSERT INTO restaurants (id, name, image, cover_image, rating, cuisine, delivery_time, min_order, featured)
		VALUES (:id, :name, :image, :cover_image, :rating, :cuisine, :delivery_time, :min_order, :featured)`
	insertMenuItemQuery = `
		INSERT INTO menu_items (id, restaurant_id, name, description, price, image, category, featured)
		VALUES (:id, :restaurant_id, :name, :description, :price, :image, :category, :featured)`
	insertCuisineQuery  = `INSERT INTO cuisines (id, name, image) VALUES (:id, :name, :image) ON CONFLICT (name) DO NOTHING`
	resetSequencesQuery = `
		SELECT setval(pg_get_serial_sequence('restaurants', 'id'), COALESCE((SELECT MAX(id) FROM restaurants), 1)),
		       setval(pg_get_serial_sequence('menu_items', 'id'), COALESCE((SELECT MAX(id) FROM menu_items), 1)),
		       setval(pg_get_serial_sequence('cuisines', 'id'), COALESCE((SELECT MAX(id) FROM cuisines), 1))`
)

// Seed loads the given catalog into empty tables in one transaction. It
// reports false without writing when restaurants already exist.
func (r *PostgresRepository) Seed(ctx context.Context, restaurants []Restaurant, cuisines []Cuisine) (bool, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, countRestaurantsQuery); err != nil {
		return false, errors.Wrap(err, "count restaurants")
	}
	if n > 0 {
		return false, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, errors.Wrap(err, "begin seed")
	}
	defer tx.Rollback()

	for _, rs := range restaurants {
		if _, err := tx.NamedExecContext(ctx, insertRestaurantQuery, rs); err != nil {
			return false, errors.Wrapf(err, "seed restaurant %d", rs.ID)
		}
		for _, m := range rs.Menu {
			m.RestaurantID = rs.ID
			if _, err := tx.NamedExecContext(ctx, insertMenuItemQuery, m); err != nil {
				return false, errors.Wrapf(err, "seed menu item %d", m.ID)
			}
		}
	}
	for _, c := range cuisines {
		if _, err := tx.NamedExecContext(ctx, insertCuisineQuery, c); err != nil {
			return false, errors.Wrapf(err, "seed cuisine %s", c.Name)
		}
	}
	if _, err := tx.ExecContext(ctx, resetSequencesQuery); err != nil {
		return false, errors.Wrap(err, "reset catalog sequences")
	}
	if err := tx.Commit(); err != nil {
		return false, errors.Wrap(err, "commit seed")
	}
	return true, nil
}
