package cart

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Catalog resolves a menu item into a cart line priced by the restaurant.
type Catalog interface {
	CartItem(ctx context.Context, menuItemID int) (Item, error)
}

// Service applies cart changes through the repository. Every call reads
// the stored cart, so services in other processes sharing the store see
// each other's writes.
type Service struct {
	repo    Repository
	catalog Catalog
	fee     FeePolicy
}

func NewService(repo Repository, catalog Catalog, fee FeePolicy) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		fee:     fee,
	}
}

func (s *Service) Get(ctx context.Context, userID int) (Summary, error) {
	items, err := s.repo.Load(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	return New(s.fee, items...).Summary(), nil
}

// Add looks the menu item up in the catalog and adds qty of it.
func (s *Service) Add(ctx context.Context, userID, menuItemID, qty int) (Summary, error) {
	if s.catalog == nil {
		return Summary{}, errors.New("cart: no catalog configured")
	}
	item, err := s.catalog.CartItem(ctx, menuItemID)
	if err != nil {
		return Summary{}, err
	}
	item.Quantity = qty
	return s.AddItem(ctx, userID, item)
}

func (s *Service) AddItem(ctx context.Context, userID int, item Item) (Summary, error) {
	return s.apply(ctx, userID, func(c *Cart) error { return c.addItem(item) })
}

func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID, qty int) (Summary, error) {
	return s.apply(ctx, userID, func(c *Cart) error {
		c.updateQuantity(itemID, qty)
		return nil
	})
}

func (s *Service) Remove(ctx context.Context, userID, itemID int) (Summary, error) {
	return s.apply(ctx, userID, func(c *Cart) error {
		c.removeItem(itemID)
		return nil
	})
}

func (s *Service) Clear(ctx context.Context, userID int) error {
	_, err := s.apply(ctx, userID, func(c *Cart) error {
		c.items = nil
		return nil
	})
	return err
}

// Checkout hands a priced snapshot of the cart to place while the stored
// cart is held. The cart is cleared only if place succeeds, so a failed
// checkout leaves it as it was and no concurrent change can slip in between.
func (s *Service) Checkout(ctx context.Context, userID int, place func(s Summary) error) error {
	placed := false
	err := s.repo.Update(ctx, userID, func(items []Item) ([]Item, error) {
		if err := place(New(s.fee, items...).summary()); err != nil {
			return nil, err
		}
		placed = true
		return nil, nil
	})
	if err != nil && placed {
		// The order already exists at this point, so a failed write only
		// leaves a stale persisted cart behind.
		log.WithFields(log.Fields{"user_id": userID}).WithError(err).Error("clear cart after checkout")
		return nil
	}
	return err
}

func (s *Service) apply(ctx context.Context, userID int, fn func(c *Cart) error) (Summary, error) {
	var sum Summary
	err := s.repo.Update(ctx, userID, func(items []Item) ([]Item, error) {
		c := New(s.fee, items...)
		if err := fn(c); err != nil {
			return nil, err
		}
		sum = c.summary()
		return c.snapshot(), nil
	})
	if err != nil {
		return Summary{}, err
	}
	return sum, nil
}
