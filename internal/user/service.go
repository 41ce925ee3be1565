package user

import (
	"context"
	"net/mail"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/wichananm65/food-order-backend/internal/apperr"
)

const minPasswordLength = 6

type Service struct {
	repo Repository
	cost int
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

type Registration struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

func (r Registration) validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return apperr.Validation("name", "is required")
	case strings.TrimSpace(r.Email) == "":
		return apperr.Validation("email", "is required")
	case strings.TrimSpace(r.Phone) == "":
		return apperr.Validation("phone", "is required")
	case len(r.Password) < minPasswordLength:
		return apperr.Validation("password", "must be at least 6 characters")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return apperr.Validation("email", "is not a valid address")
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id int) (User, error) {
	return s.repo.GetByID(ctx, id)
}

// Register creates an account with a bcrypt hash of the password.
func (s *Service) Register(ctx context.Context, reg Registration) (User, error) {
	if err := reg.validate(); err != nil {
		return User{}, err
	}
	if _, err := s.repo.GetByEmail(ctx, reg.Email); err == nil {
		return User{}, ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if err != nil {
		return User{}, errors.Wrap(err, "hash password")
	}
	u, err := s.repo.Create(ctx, User{
		Name:         strings.TrimSpace(reg.Name),
		Email:        reg.Email,
		Phone:        strings.TrimSpace(reg.Phone),
		PasswordHash: string(hashed),
	})
	if err != nil {
		return User{}, err
	}
	log.WithFields(log.Fields{"user_id": u.ID}).Info("user registered")
	return u, nil
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Profile holds the fields a user may change. Nil fields are left alone.
type Profile struct {
	Name  *string
	Phone *string
}

func (s *Service) UpdateProfile(ctx context.Context, id int, p Profile) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return User{}, apperr.Validation("name", "cannot be blank")
		}
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Phone != nil {
		if strings.TrimSpace(*p.Phone) == "" {
			return User{}, apperr.Validation("phone", "cannot be blank")
		}
		u.Phone = strings.TrimSpace(*p.Phone)
	}
	return s.repo.Update(ctx, u)
}
