package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/wichananm65/food-order-backend/internal/address"
	"github.com/wichananm65/food-order-backend/internal/apperr"
	"github.com/wichananm65/food-order-backend/internal/cart"
)

// IDFunc generates order ids.
type IDFunc func() (string, error)

// NewID returns a UUIDv7, which sorts by creation time.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", errors.Wrap(err, "generate order id")
	}
	return id.String(), nil
}

// Draft is everything needed to build an order.
type Draft struct {
	UserID      int
	Items       []cart.Item
	DeliveryFee decimal.Decimal
	Address     address.Delivery
	Method      PaymentMethod
}

// New builds an order from a cart snapshot. The items are copied and the
// total is computed here once.
func New(d Draft, now time.Time, newID IDFunc) (Order, error) {
	if len(d.Items) == 0 {
		return Order{}, apperr.ErrEmptyCart
	}
	if err := d.Address.Validate(); err != nil {
		return Order{}, err
	}
	if !d.Method.Valid() {
		return Order{}, apperr.Validation("paymentMethod", "must be card or cash")
	}
	if newID == nil {
		newID = NewID
	}
	id, err := newID()
	if err != nil {
		return Order{}, err
	}

	items := make([]cart.Item, len(d.Items))
	copy(items, d.Items)

	o := Order{
		ID:              id,
		UserID:          d.UserID,
		Items:           items,
		DeliveryAddress: d.Address.Normalize(),
		PaymentMethod:   d.Method,
		Total:           cart.Subtotal(items),
		DeliveryFee:     d.DeliveryFee,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	switch d.Method {
	case MethodCard:
		o.Status, o.PaymentStatus = StatusPendingPayment, PaymentPending
	case MethodCash:
		o.Status, o.PaymentStatus = StatusPending, PaymentNotRequired
	}
	return o, nil
}
