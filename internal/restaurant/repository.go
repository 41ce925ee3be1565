package restaurant

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/wichananm65/food-order-backend/internal/apperr"
)

type Repository interface {
	List(ctx context.Context, f Filter) ([]Restaurant, error)
	Get(ctx context.Context, id int) (Restaurant, error)
	MenuItem(ctx context.Context, id int) (MenuItem, error)
	FeaturedItems(ctx context.Context) ([]MenuItem, error)
	Cuisines(ctx context.Context) ([]Cuisine, error)
}

// InMemoryRepository is used for tests and the in-memory server.
type InMemoryRepository struct {
	mu          sync.RWMutex
	restaurants []Restaurant
	cuisines    []Cuisine
}

func NewInMemoryRepository(restaurants []Restaurant, cuisines []Cuisine) *InMemoryRepository {
	r := &InMemoryRepository{
		restaurants: make([]Restaurant, 0, len(restaurants)),
		cuisines:    make([]Cuisine, 0, len(cuisines)),
	}
	for _, rs := range restaurants {
		menu := make([]MenuItem, len(rs.Menu))
		for i, m := range rs.Menu {
			m.RestaurantID = rs.ID
			m.Restaurant = rs.Name
			menu[i] = m
		}
		rs.Menu = menu
		r.restaurants = append(r.restaurants, rs)
	}
	r.cuisines = append(r.cuisines, cuisines...)
	return r
}

func (r *InMemoryRepository) List(_ context.Context, f Filter) ([]Restaurant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Restaurant, 0)
	for _, rs := range r.restaurants {
		if !matchesCuisine(rs, f.Cuisines) || !matchesQuery(rs, f.Query) {
			continue
		}
		rs.Menu = nil
		out = append(out, rs)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, f.Limit, f.Offset), nil
}

func (r *InMemoryRepository) Get(_ context.Context, id int) (Restaurant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rs := range r.restaurants {
		if rs.ID == id {
			menu := make([]MenuItem, len(rs.Menu))
			copy(menu, rs.Menu)
			rs.Menu = menu
			return rs, nil
		}
	}
	return Restaurant{}, apperr.NotFound("restaurant", id)
}

func (r *InMemoryRepository) MenuItem(_ context.Context, id int) (MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rs := range r.restaurants {
		for _, m := range rs.Menu {
			if m.ID == id {
				return m, nil
			}
		}
	}
	return MenuItem{}, apperr.NotFound("menu item", id)
}

func (r *InMemoryRepository) FeaturedItems(_ context.Context) ([]MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MenuItem, 0)
	for _, rs := range r.restaurants {
		for _, m := range rs.Menu {
			if m.Featured {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

// Cuisines reports the configured cuisines with a live restaurant count.
func (r *InMemoryRepository) Cuisines(_ context.Context) ([]Cuisine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int)
	for _, rs := range r.restaurants {
		counts[strings.ToLower(rs.Cuisine)]++
	}
	out := make([]Cuisine, len(r.cuisines))
	for i, c := range r.cuisines {
		c.Count = counts[strings.ToLower(c.Name)]
		out[i] = c
	}
	return out, nil
}

func matchesCuisine(rs Restaurant, cuisines []string) bool {
	if len(cuisines) == 0 {
		return true
	}
	for _, c := range cuisines {
		if strings.EqualFold(rs.Cuisine, c) {
			return true
		}
	}
	return false
}

func matchesQuery(rs Restaurant, q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(rs.Name), q) || strings.Contains(strings.ToLower(rs.Cuisine), q) {
		return true
	}
	for _, m := range rs.Menu {
		if strings.Contains(strings.ToLower(m.Name), q) {
			return true
		}
	}
	return false
}

func paginate(in []Restaurant, limit, offset int) []Restaurant {
	if offset >= len(in) {
		return []Restaurant{}
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
