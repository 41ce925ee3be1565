package user

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/wichananm65/food-order-backend/internal/apperr"
	"github.com/wichananm65/food-order-backend/internal/order"
)

var (
	ErrNotFound           = apperr.NotFound("user", nil)
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already exists")
)

// Repository is the record store for users and the orders they place.
type Repository interface {
	order.Store

	GetByID(ctx context.Context, id int) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, u User) (User, error)
	FindUser(ctx context.Context, match func(User) bool) (User, bool, error)
}

// record is one user with their orders. Its mutex serializes every write to
// the user's order list.
type record struct {
	mu     sync.Mutex
	user   User
	orders []order.Order
}

// InMemoryRepository keeps everything in process. The map lock only guards
// which records exist; each record has its own lock, so writers for
// different users never wait on each other. Values are copied in and out.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[int]*record
	emails  map[string]int
	nextID  int
	now     func() time.Time
}

func NewInMemoryRepository(seed ...User) *InMemoryRepository {
	r := &InMemoryRepository{
		records: make(map[int]*record, len(seed)),
		emails:  make(map[string]int, len(seed)),
		nextID:  1,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, u := range seed {
		u.Email = normalizeEmail(u.Email)
		r.records[u.ID] = &record{user: u}
		r.emails[u.Email] = u.ID
		if u.ID >= r.nextID {
			r.nextID = u.ID + 1
		}
	}
	return r
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *InMemoryRepository) lookup(userID int) *record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.records[userID]
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (User, error) {
	rec := r.lookup(id)
	if rec == nil {
		return User{}, ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.user, nil
}

func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	r.mu.RLock()
	id, ok := r.emails[normalizeEmail(email)]
	r.mu.RUnlock()
	if !ok {
		return User{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *InMemoryRepository) Create(_ context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u.Email = normalizeEmail(u.Email)
	if _, ok := r.emails[u.Email]; ok {
		return User{}, ErrEmailExists
	}
	u.ID = r.nextID
	r.nextID++
	now := r.now()
	u.CreatedAt, u.UpdatedAt = now, now
	r.records[u.ID] = &record{user: u}
	r.emails[u.Email] = u.ID
	return u, nil
}

// Update replaces the profile fields of an existing user. Email and
// password hash are kept.
func (r *InMemoryRepository) Update(_ context.Context, u User) (User, error) {
	rec := r.lookup(u.ID)
	if rec == nil {
		return User{}, ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.user.Name = u.Name
	rec.user.Phone = u.Phone
	rec.user.UpdatedAt = r.now()
	return rec.user, nil
}

// FindUser returns the first user, in id order, that match accepts.
func (r *InMemoryRepository) FindUser(_ context.Context, match func(User) bool) (User, bool, error) {
	r.mu.RLock()
	recs := make([]*record, 0, len(r.records))
	for _, rec := range r.records {
		recs = append(recs, rec)
	}
	r.mu.RUnlock()

	users := make([]User, 0, len(recs))
	for _, rec := range recs {
		rec.mu.Lock()
		users = append(users, rec.user)
		rec.mu.Unlock()
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	for _, u := range users {
		if match(u) {
			return u, true, nil
		}
	}
	return User{}, false, nil
}

func (r *InMemoryRepository) AppendOrder(_ context.Context, userID int, o order.Order) error {
	rec := r.lookup(userID)
	if rec == nil {
		return ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	for _, existing := range rec.orders {
		if existing.ID == o.ID {
			return errors.Errorf("order %s already exists", o.ID)
		}
	}
	o = o.Clone()
	o.UserID = userID
	rec.orders = append(rec.orders, o)
	return nil
}

func (r *InMemoryRepository) UpdateOrder(_ context.Context, userID int, orderID string, mutate func(o *order.Order) error) (order.Order, error) {
	rec := r.lookup(userID)
	if rec == nil {
		return order.Order{}, ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	i := indexOf(rec.orders, orderID)
	if i < 0 {
		return order.Order{}, apperr.NotFound("order", orderID)
	}
	o := rec.orders[i].Clone()
	if err := mutate(&o); err != nil {
		return order.Order{}, err
	}
	o.ID, o.UserID = rec.orders[i].ID, userID
	rec.orders[i] = o.Clone()
	return o, nil
}

func (r *InMemoryRepository) FindOrder(_ context.Context, userID int, orderID string) (order.Order, bool, error) {
	rec := r.lookup(userID)
	if rec == nil {
		return order.Order{}, false, nil
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	i := indexOf(rec.orders, orderID)
	if i < 0 {
		return order.Order{}, false, nil
	}
	return rec.orders[i].Clone(), true, nil
}

// ListOrders returns the user's orders, newest first.
func (r *InMemoryRepository) ListOrders(_ context.Context, userID int) ([]order.Order, error) {
	rec := r.lookup(userID)
	if rec == nil {
		return []order.Order{}, nil
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	out := make([]order.Order, 0, len(rec.orders))
	for i := len(rec.orders) - 1; i >= 0; i-- {
		out = append(out, rec.orders[i].Clone())
	}
	return out, nil
}

func indexOf(orders []order.Order, id string) int {
	for i := range orders {
		if orders[i].ID == id {
			return i
		}
	}
	return -1
}
