package order

import "context"

// Store keeps each user's orders. Appends and updates for one user are
// serialized; UpdateOrder writes nothing when mutate fails and returns
// *apperr.NotFoundError when the user or order does not exist.
type Store interface {
	AppendOrder(ctx context.Context, userID int, o Order) error
	UpdateOrder(ctx context.Context, userID int, orderID string, mutate func(o *Order) error) (Order, error)
	FindOrder(ctx context.Context, userID int, orderID string) (Order, bool, error)
	ListOrders(ctx context.Context, userID int) ([]Order, error)
}
