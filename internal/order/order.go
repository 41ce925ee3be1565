package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wichananm65/food-order-backend/internal/address"
	"github.com/wichananm65/food-order-backend/internal/cart"
)

type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusPreparing      Status = "preparing"
	StatusDelivering     Status = "delivering"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending     PaymentStatus = "pending"
	PaymentPaid        PaymentStatus = "paid"
	PaymentNotRequired PaymentStatus = "not_required"
)

type PaymentMethod string

const (
	MethodCard PaymentMethod = "card"
	MethodCash PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodCard || m == MethodCash
}

// Order is a placed checkout. Items, address and Total are fixed when the
// order is created; only the status fields and the payment reference
// change afterwards.
type Order struct {
	ID               string           `json:"id"`
	UserID           int              `json:"userId"`
	Items            []cart.Item      `json:"items"`
	DeliveryAddress  address.Delivery `json:"deliveryAddress"`
	PaymentMethod    PaymentMethod    `json:"paymentMethod"`
	Status           Status           `json:"status"`
	PaymentStatus    PaymentStatus    `json:"paymentStatus"`
	Total            decimal.Decimal  `json:"total"`
	DeliveryFee      decimal.Decimal  `json:"deliveryFee"`
	PaymentReference string           `json:"paymentReference,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// AmountDue is what the customer is charged: the item total plus delivery.
func (o Order) AmountDue() decimal.Decimal {
	return o.Total.Add(o.DeliveryFee)
}

// Clone returns a copy that shares no slices with o.
func (o Order) Clone() Order {
	out := o
	if o.Items != nil {
		out.Items = make([]cart.Item, len(o.Items))
		copy(out.Items, o.Items)
	}
	return out
}
