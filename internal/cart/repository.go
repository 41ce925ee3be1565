package cart

import (
	"context"
	"sync"
)

// Repository persists the lines of each user's cart between requests.
type Repository interface {
	Load(ctx context.Context, userID int) ([]Item, error)
	// Update reads the stored lines, hands them to fn and stores what fn
	// returns, as one step. Updates for the same user never interleave,
	// and an error from fn leaves the stored cart untouched.
	Update(ctx context.Context, userID int, fn func(items []Item) ([]Item, error)) error
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu    sync.Mutex
	carts map[int]*storedCart
}

type storedCart struct {
	mu    sync.Mutex
	items []Item
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{carts: make(map[int]*storedCart)}
}

func (r *InMemoryRepository) Load(_ context.Context, userID int) ([]Item, error) {
	r.mu.Lock()
	sc, ok := r.carts[userID]
	r.mu.Unlock()
	if !ok {
		return []Item{}, nil
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return copyItems(sc.items), nil
}

func (r *InMemoryRepository) Update(_ context.Context, userID int, fn func(items []Item) ([]Item, error)) error {
	r.mu.Lock()
	sc, ok := r.carts[userID]
	if !ok {
		sc = &storedCart{}
		r.carts[userID] = sc
	}
	r.mu.Unlock()

	sc.mu.Lock()
	defer sc.mu.Unlock()
	next, err := fn(copyItems(sc.items))
	if err != nil {
		return err
	}
	sc.items = copyItems(next)
	return nil
}

func copyItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
