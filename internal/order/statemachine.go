package order

import (
	"github.com/wichananm65/food-order-backend/internal/apperr"
)

// rank orders the fulfillment states. Both initial states share rank zero.
var rank = map[Status]int{
	StatusPendingPayment: 0,
	StatusPending:        0,
	StatusConfirmed:      1,
	StatusPreparing:      2,
	StatusDelivering:     3,
	StatusDelivered:      4,
}

func (s Status) Valid() bool {
	_, ok := rank[s]
	return ok || s == StatusCancelled
}

// Terminal reports whether no transition can leave s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func invalid(o *Order, to Status, reason string) error {
	return &apperr.InvalidTransitionError{From: string(o.Status), To: string(to), Reason: reason}
}

// Transition moves o to the given status for a fulfillment event or a
// cancellation. The order is left untouched when an error is returned.
func Transition(o *Order, to Status) error {
	if !to.Valid() {
		return invalid(o, to, "unknown status")
	}
	if o.Status == StatusCancelled {
		return invalid(o, to, "order is cancelled")
	}
	if to == StatusCancelled {
		if o.Status == StatusDelivered {
			return invalid(o, to, "order is delivered")
		}
		o.Status = StatusCancelled
		return nil
	}

	from, ok := rank[o.Status]
	if !ok {
		return invalid(o, to, "unknown current status")
	}
	if rank[to] <= from {
		return invalid(o, to, "status cannot go backwards")
	}
	if o.PaymentMethod == MethodCard && o.PaymentStatus != PaymentPaid {
		return invalid(o, to, "payment not confirmed")
	}
	o.Status = to
	return nil
}

// ConfirmPayment records a verified successful card payment. It is the only
// way a card order becomes paid. Confirming an already paid order changes
// nothing and is not an error.
func ConfirmPayment(o *Order) (bool, error) {
	if o.PaymentStatus == PaymentPaid {
		return false, nil
	}
	if o.Status == StatusCancelled {
		return false, invalid(o, StatusConfirmed, "order is cancelled")
	}
	if o.PaymentMethod != MethodCard {
		return false, invalid(o, StatusConfirmed, "order is not paid by card")
	}
	o.PaymentStatus = PaymentPaid
	if rank[o.Status] < rank[StatusConfirmed] {
		o.Status = StatusConfirmed
	}
	return true, nil
}
