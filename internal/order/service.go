package order

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/wichananm65/food-order-backend/internal/address"
	"github.com/wichananm65/food-order-backend/internal/apperr"
	"github.com/wichananm65/food-order-backend/internal/cart"
	"github.com/wichananm65/food-order-backend/internal/payment"
)

// Carts hands out a priced snapshot of a user's cart and clears it once
// the snapshot has been turned into an order.
type Carts interface {
	Checkout(ctx context.Context, userID int, place func(s cart.Summary) error) error
}

// Addresses picks the delivery address for a checkout.
type Addresses interface {
	Resolve(ctx context.Context, userID, addressID int, inline *address.Delivery) (address.Delivery, error)
}

type Service struct {
	store     Store
	carts     Carts
	addresses Addresses
	gateway   payment.Gateway
	publisher Publisher
	currency  string
	newID     IDFunc
	now       func() time.Time

	verifying singleflight.Group
}

type Option func(*Service)

func WithPublisher(p Publisher) Option { return func(s *Service) { s.publisher = p } }

func WithCurrency(c string) Option { return func(s *Service) { s.currency = c } }

func WithIDFunc(f IDFunc) Option { return func(s *Service) { s.newID = f } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(store Store, carts Carts, addresses Addresses, gateway payment.Gateway, opts ...Option) *Service {
	s := &Service{
		store:     store,
		carts:     carts,
		addresses: addresses,
		gateway:   gateway,
		publisher: LogPublisher{},
		currency:  "NGN",
		newID:     NewID,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CheckoutRequest struct {
	// AddressID selects a saved address; Address gives one inline. With
	// neither, the user's default address is used.
	AddressID int
	Address   *address.Delivery
	Method    PaymentMethod
}

// Checkout turns the user's cart into an order. The order is stored before
// the cart is cleared; on any error no order exists and the cart is kept.
func (s *Service) Checkout(ctx context.Context, userID int, req CheckoutRequest) (Order, error) {
	method := PaymentMethod(strings.ToLower(strings.TrimSpace(string(req.Method))))
	if !method.Valid() {
		return Order{}, apperr.Validation("paymentMethod", "must be card or cash")
	}

	var placed Order
	err := s.carts.Checkout(ctx, userID, func(sum cart.Summary) error {
		if len(sum.Items) == 0 {
			return apperr.ErrEmptyCart
		}
		addr, err := s.addresses.Resolve(ctx, userID, req.AddressID, req.Address)
		if err != nil {
			return err
		}
		o, err := New(Draft{
			UserID:      userID,
			Items:       sum.Items,
			DeliveryFee: sum.DeliveryFee,
			Address:     addr,
			Method:      method,
		}, s.now(), s.newID)
		if err != nil {
			return err
		}
		if err := s.store.AppendOrder(ctx, userID, o); err != nil {
			return errors.Wrap(err, "store order")
		}
		placed = o
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	log.WithFields(log.Fields{
		"order_id": placed.ID,
		"user_id":  userID,
		"method":   placed.PaymentMethod,
		"total":    placed.Total.StringFixed(2),
	}).Info("order placed")
	s.publish(ctx, EventCreated, placed)
	return placed, nil
}

func (s *Service) Get(ctx context.Context, userID int, orderID string) (Order, error) {
	o, ok, err := s.store.FindOrder(ctx, userID, orderID)
	if err != nil {
		return Order{}, err
	}
	if !ok {
		return Order{}, apperr.NotFound("order", orderID)
	}
	return o, nil
}

func (s *Service) List(ctx context.Context, userID int) ([]Order, error) {
	return s.store.ListOrders(ctx, userID)
}

// InitiatePayment starts a card payment for an order awaiting one and
// records the provider's reference on it. A provider error leaves the order
// as it was, so the payment can be retried against the same order.
func (s *Service) InitiatePayment(ctx context.Context, userID int, orderID, email string) (payment.Initiation, error) {
	o, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return payment.Initiation{}, err
	}
	if err := awaitingPayment(&o); err != nil {
		return payment.Initiation{}, err
	}
	if strings.TrimSpace(email) == "" {
		return payment.Initiation{}, apperr.Validation("email", "is required")
	}

	started, err := s.gateway.Initiate(ctx, payment.InitiateRequest{
		Amount:   o.AmountDue(),
		Currency: s.currency,
		Email:    email,
		OrderID:  o.ID,
	})
	if err != nil {
		return payment.Initiation{}, err
	}

	updated, err := s.store.UpdateOrder(ctx, userID, orderID, func(o *Order) error {
		if err := awaitingPayment(o); err != nil {
			return err
		}
		o.PaymentReference = started.Reference
		o.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return payment.Initiation{}, err
	}
	s.publish(ctx, EventPaymentInitiated, updated)
	return started, nil
}

func awaitingPayment(o *Order) error {
	if o.PaymentMethod != MethodCard {
		return apperr.Validation("paymentMethod", "order is not paid by card")
	}
	if o.Status != StatusPendingPayment || o.PaymentStatus != PaymentPending {
		return invalid(o, StatusPendingPayment, "order is not awaiting payment")
	}
	return nil
}

// VerifyResult is the outcome of a verification. Changed is false when the
// transaction did not succeed or the order had already been paid.
type VerifyResult struct {
	Order       Order               `json:"order"`
	Transaction payment.Transaction `json:"transaction"`
	Changed     bool                `json:"changed"`
}

// VerifyPayment asks the provider about reference and, on success, marks
// the order paid and confirmed. Only the reference recorded by
// InitiatePayment is accepted, and the transaction must carry the amount
// and currency charged for this order. Repeating a successful verification
// is a no-op. Any other provider status comes back in the result with the
// order unchanged. Concurrent calls for one reference share a single
// provider request.
func (s *Service) VerifyPayment(ctx context.Context, userID int, orderID, reference string) (VerifyResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return VerifyResult{}, apperr.Validation("reference", "is required")
	}
	o, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return VerifyResult{}, err
	}
	if err := matchesReference(&o, reference); err != nil {
		return VerifyResult{}, err
	}

	v, err, _ := s.verifying.Do(reference, func() (interface{}, error) {
		return s.gateway.Verify(ctx, reference)
	})
	if err != nil {
		return VerifyResult{}, err
	}
	tx := v.(payment.Transaction)
	if !tx.Succeeded() {
		log.WithFields(log.Fields{
			"order_id":  orderID,
			"reference": reference,
			"status":    tx.Status,
		}).Info("payment not successful")
		return VerifyResult{Order: o, Transaction: tx}, nil
	}

	var changed bool
	updated, err := s.store.UpdateOrder(ctx, userID, orderID, func(o *Order) error {
		if err := matchesReference(o, reference); err != nil {
			return err
		}
		if err := s.paysFor(o, tx); err != nil {
			return err
		}
		ok, err := ConfirmPayment(o)
		if err != nil {
			return err
		}
		if ok {
			changed = true
			o.PaymentReference = reference
			o.UpdatedAt = s.now()
		}
		return nil
	})
	if err != nil {
		return VerifyResult{}, err
	}
	if changed {
		log.WithFields(log.Fields{"order_id": orderID, "reference": reference}).Info("payment confirmed")
		s.publish(ctx, EventPaymentConfirmed, updated)
	}
	return VerifyResult{Order: updated, Transaction: tx, Changed: changed}, nil
}

func matchesReference(o *Order, reference string) error {
	if o.PaymentMethod != MethodCard {
		return apperr.Validation("paymentMethod", "order is not paid by card")
	}
	if o.PaymentReference == "" {
		if o.Status == StatusCancelled {
			return invalid(o, StatusConfirmed, "order is cancelled")
		}
		return apperr.Validation("reference", "no payment has been started for this order")
	}
	if o.PaymentReference != reference {
		return apperr.Validation("reference", "does not belong to this order")
	}
	return nil
}

// paysFor checks that a successful transaction settles exactly this order.
func (s *Service) paysFor(o *Order, tx payment.Transaction) error {
	mismatch := ""
	switch {
	case tx.OrderID != "" && tx.OrderID != o.ID:
		mismatch = "payment belongs to another order"
	case tx.Amount != payment.ToMinorUnits(o.AmountDue()):
		mismatch = "payment amount does not match the order"
	case !strings.EqualFold(tx.Currency, s.currency):
		mismatch = "payment currency does not match the order"
	}
	if mismatch == "" {
		return nil
	}
	log.WithFields(log.Fields{
		"order_id":    o.ID,
		"reference":   tx.Reference,
		"amount":      tx.Amount,
		"currency":    tx.Currency,
		"tx_order_id": tx.OrderID,
	}).Warn(mismatch)
	return &apperr.GatewayError{Message: mismatch}
}

// Advance applies a fulfillment event.
func (s *Service) Advance(ctx context.Context, userID int, orderID string, to Status) (Order, error) {
	var from Status
	updated, err := s.store.UpdateOrder(ctx, userID, orderID, func(o *Order) error {
		from = o.Status
		if err := Transition(o, to); err != nil {
			return err
		}
		o.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	log.WithFields(log.Fields{"order_id": orderID, "from": from, "to": to}).Info("order status changed")
	if to == StatusCancelled {
		s.publish(ctx, EventCancelled, updated)
	} else {
		s.publish(ctx, EventStatusChanged, updated)
	}
	return updated, nil
}

func (s *Service) Cancel(ctx context.Context, userID int, orderID string) (Order, error) {
	return s.Advance(ctx, userID, orderID, StatusCancelled)
}

func (s *Service) publish(ctx context.Context, t EventType, o Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventFor(t, o, s.now())); err != nil {
		log.WithFields(log.Fields{"order_id": o.ID, "event": t}).WithError(err).Error("publish order event")
	}
}
