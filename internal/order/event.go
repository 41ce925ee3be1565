package order

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

type EventType string

const (
	EventCreated          EventType = "order.created"
	EventPaymentInitiated EventType = "order.payment_initiated"
	EventPaymentConfirmed EventType = "order.payment_confirmed"
	EventStatusChanged    EventType = "order.status_changed"
	EventCancelled        EventType = "order.cancelled"
)

type Event struct {
	Type          EventType     `json:"type"`
	OrderID       string        `json:"orderId"`
	UserID        int           `json:"userId"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	At            time.Time     `json:"at"`
}

func eventFor(t EventType, o Order, at time.Time) Event {
	return Event{
		Type:          t,
		OrderID:       o.ID,
		UserID:        o.UserID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		At:            at,
	}
}

// Publisher announces order changes after they are stored. Failures are
// logged by the caller and never undo the change.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// LogPublisher writes events to the log.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, e Event) error {
	log.WithFields(log.Fields{
		"event":          e.Type,
		"order_id":       e.OrderID,
		"user_id":        e.UserID,
		"status":         e.Status,
		"payment_status": e.PaymentStatus,
	}).Info("order event")
	return nil
}
