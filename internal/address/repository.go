package address

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wichananm65/food-order-backend/internal/apperr"
)

// Repository stores address books. Create, Update and SetDefault keep at
// most one default address per user.
type Repository interface {
	List(ctx context.Context, userID int) ([]Address, error)
	Get(ctx context.Context, userID, addressID int) (Address, error)
	Create(ctx context.Context, a Address) (Address, error)
	Update(ctx context.Context, a Address) (Address, error)
	Delete(ctx context.Context, userID, addressID int) error
	SetDefault(ctx context.Context, userID, addressID int) error
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu     sync.RWMutex
	data   map[int][]Address
	nextID int
}

func NewInMemoryRepository(seed map[int][]Address) *InMemoryRepository {
	r := &InMemoryRepository{data: make(map[int][]Address), nextID: 1}
	for userID, addrs := range seed {
		for _, a := range addrs {
			a.UserID = userID
			r.data[userID] = append(r.data[userID], a)
			if a.ID >= r.nextID {
				r.nextID = a.ID + 1
			}
		}
	}
	return r
}

func (r *InMemoryRepository) List(_ context.Context, userID int) ([]Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Address, len(r.data[userID]))
	copy(out, r.data[userID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) Get(_ context.Context, userID, addressID int) (Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.data[userID] {
		if a.ID == addressID {
			return a, nil
		}
	}
	return Address{}, apperr.NotFound("address", addressID)
}

func (r *InMemoryRepository) Create(_ context.Context, a Address) (Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	a.ID = r.nextID
	r.nextID++
	a.CreatedAt, a.UpdatedAt = now, now
	if a.IsDefault {
		r.clearDefault(a.UserID)
	}
	r.data[a.UserID] = append(r.data[a.UserID], a)
	return a, nil
}

func (r *InMemoryRepository) Update(_ context.Context, a Address) (Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	addrs := r.data[a.UserID]
	for i := range addrs {
		if addrs[i].ID != a.ID {
			continue
		}
		if a.IsDefault {
			r.clearDefault(a.UserID)
		}
		a.CreatedAt = addrs[i].CreatedAt
		a.UpdatedAt = time.Now().UTC()
		addrs[i] = a
		return a, nil
	}
	return Address{}, apperr.NotFound("address", a.ID)
}

func (r *InMemoryRepository) Delete(_ context.Context, userID, addressID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	addrs := r.data[userID]
	for i, a := range addrs {
		if a.ID == addressID {
			r.data[userID] = append(addrs[:i:i], addrs[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("address", addressID)
}

func (r *InMemoryRepository) SetDefault(_ context.Context, userID, addressID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	addrs := r.data[userID]
	for i := range addrs {
		if addrs[i].ID == addressID {
			r.clearDefault(userID)
			addrs[i].IsDefault = true
			addrs[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return apperr.NotFound("address", addressID)
}

func (r *InMemoryRepository) clearDefault(userID int) {
	addrs := r.data[userID]
	for i := range addrs {
		addrs[i].IsDefault = false
	}
}
