package restaurant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/wichananm65/food-order-backend/internal/cart"
)

type Service struct {
	repo  Repository
	cache Cache
}

// NewService builds the catalog service. cache may be nil.
func NewService(repo Repository, cache Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

func (s *Service) List(ctx context.Context, f Filter) ([]Restaurant, error) {
	key := fmt.Sprintf("restaurants:q=%s:c=%s:%d:%d",
		strings.ToLower(strings.TrimSpace(f.Query)), strings.ToLower(strings.Join(f.Cuisines, ",")), f.Limit, f.Offset)
	return cached(ctx, s.cache, key, func() ([]Restaurant, error) {
		return s.repo.List(ctx, f)
	})
}

func (s *Service) Get(ctx context.Context, id int) (Restaurant, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) MenuItem(ctx context.Context, id int) (MenuItem, error) {
	return s.repo.MenuItem(ctx, id)
}

func (s *Service) Featured(ctx context.Context) ([]FeaturedDish, error) {
	return cached(ctx, s.cache, "featured", func() ([]FeaturedDish, error) {
		items, err := s.repo.FeaturedItems(ctx)
		if err != nil {
			return nil, err
		}
		dishes := make([]FeaturedDish, 0, len(items))
		for _, m := range items {
			dishes = append(dishes, featuredDish(m))
		}
		return dishes, nil
	})
}

func (s *Service) Cuisines(ctx context.Context) ([]Cuisine, error) {
	return cached(ctx, s.cache, "cuisines", func() ([]Cuisine, error) {
		return s.repo.Cuisines(ctx)
	})
}

// CartItem prices a menu item for the cart.
func (s *Service) CartItem(ctx context.Context, menuItemID int) (cart.Item, error) {
	m, err := s.repo.MenuItem(ctx, menuItemID)
	if err != nil {
		return cart.Item{}, err
	}
	return cart.Item{
		ID:           m.ID,
		Name:         m.Name,
		UnitPrice:    m.Price,
		RestaurantID: m.RestaurantID,
		Restaurant:   m.Restaurant,
		Image:        m.Image,
	}, nil
}

// cached serves key from cache, falling back to load on a miss. Cache
// failures only cost a trip to the repository.
func cached[T any](ctx context.Context, cache Cache, key string, load func() (T, error)) (T, error) {
	if cache != nil {
		if raw, err := cache.Get(ctx, key); err == nil {
			var hit T
			if err := json.Unmarshal(raw, &hit); err == nil {
				return hit, nil
			}
		}
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if cache != nil {
		if err := cache.Set(ctx, key, v); err != nil {
			log.WithField("key", key).WithError(err).Warn("catalog cache write failed")
		}
	}
	return v, nil
}
