package address

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/wichananm65/food-order-backend/internal/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, userID int) ([]Address, error) {
	return s.repo.List(ctx, userID)
}

// Add saves a new address. The first address of a user becomes the default.
func (s *Service) Add(ctx context.Context, userID int, label string, d Delivery, makeDefault bool) (Address, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return Address{}, err
	}
	existing, err := s.repo.List(ctx, userID)
	if err != nil {
		return Address{}, err
	}
	return s.repo.Create(ctx, Address{
		UserID:    userID,
		Label:     label,
		Delivery:  d,
		IsDefault: makeDefault || len(existing) == 0,
	})
}

func (s *Service) Update(ctx context.Context, userID, addressID int, label string, d Delivery) (Address, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return Address{}, err
	}
	current, err := s.repo.Get(ctx, userID, addressID)
	if err != nil {
		return Address{}, err
	}
	current.Label = label
	current.Delivery = d
	return s.repo.Update(ctx, current)
}

// Delete removes an address. When the default goes, the oldest remaining
// address takes its place.
func (s *Service) Delete(ctx context.Context, userID, addressID int) error {
	current, err := s.repo.Get(ctx, userID, addressID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, addressID); err != nil {
		return err
	}
	if !current.IsDefault {
		return nil
	}
	rest, err := s.repo.List(ctx, userID)
	if err != nil || len(rest) == 0 {
		return err
	}
	if err := s.repo.SetDefault(ctx, userID, rest[0].ID); err != nil {
		log.WithFields(log.Fields{"user_id": userID, "address_id": rest[0].ID}).WithError(err).Warn("promote default address")
	}
	return nil
}

func (s *Service) SetDefault(ctx context.Context, userID, addressID int) error {
	return s.repo.SetDefault(ctx, userID, addressID)
}

func (s *Service) Default(ctx context.Context, userID int) (Address, error) {
	addrs, err := s.repo.List(ctx, userID)
	if err != nil {
		return Address{}, err
	}
	for _, a := range addrs {
		if a.IsDefault {
			return a, nil
		}
	}
	return Address{}, apperr.NotFound("default address", nil)
}

// Resolve picks the delivery address for a checkout: an inline address
// wins, then a saved address by id, then the user's default.
func (s *Service) Resolve(ctx context.Context, userID int, addressID int, inline *Delivery) (Delivery, error) {
	if inline != nil {
		d := inline.Normalize()
		return d, d.Validate()
	}
	if addressID > 0 {
		a, err := s.repo.Get(ctx, userID, addressID)
		if err != nil {
			return Delivery{}, err
		}
		return a.Delivery, nil
	}
	a, err := s.Default(ctx, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return Delivery{}, apperr.Validation("deliveryAddress", "is required")
		}
		return Delivery{}, errors.Wrap(err, "resolve address")
	}
	return a.Delivery, nil
}
