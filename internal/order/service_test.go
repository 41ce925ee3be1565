package order_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/food-order-backend/internal/address"
	"github.com/wichananm65/food-order-backend/internal/apperr"
	"github.com/wichananm65/food-order-backend/internal/cart"
	"github.com/wichananm65/food-order-backend/internal/order"
	"github.com/wichananm65/food-order-backend/internal/payment"
	"github.com/wichananm65/food-order-backend/internal/user"
)

type menu map[int]cart.Item

func (m menu) CartItem(_ context.Context, id int) (cart.Item, error) {
	it, ok := m[id]
	if !ok {
		return cart.Item{}, apperr.NotFound("menu item", id)
	}
	return it, nil
}

var testMenu = menu{
	1: {ID: 1, Name: "Jollof Rice", UnitPrice: decimal.RequireFromString("10.00"), RestaurantID: 1},
	2: {ID: 2, Name: "Suya", UnitPrice: decimal.RequireFromString("4.25"), RestaurantID: 2},
}

// fakeGateway answers with fixed results and records what it was asked.
// Verify reports the amount, currency and order of the matching initiation
// unless settle overrides them.
type fakeGateway struct {
	mu         sync.Mutex
	initiated  []payment.InitiateRequest
	initErr    error
	verifyErr  error
	status     payment.Status
	settle     func(tx *payment.Transaction)
	verifyHits int32
}

func (g *fakeGateway) Initiate(_ context.Context, req payment.InitiateRequest) (payment.Initiation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.initErr != nil {
		return payment.Initiation{}, g.initErr
	}
	g.initiated = append(g.initiated, req)
	ref := fmt.Sprintf("ref-%d", len(g.initiated))
	return payment.Initiation{Reference: ref, AuthorizationURL: "https://checkout.example/" + ref}, nil
}

func (g *fakeGateway) Verify(_ context.Context, reference string) (payment.Transaction, error) {
	atomic.AddInt32(&g.verifyHits, 1)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.verifyErr != nil {
		return payment.Transaction{}, g.verifyErr
	}
	status := g.status
	if status == "" {
		status = payment.StatusSuccess
	}
	tx := payment.Transaction{Reference: reference, Status: status}
	var n int
	if _, err := fmt.Sscanf(reference, "ref-%d", &n); err == nil && n >= 1 && n <= len(g.initiated) {
		req := g.initiated[n-1]
		tx.Amount = payment.ToMinorUnits(req.Amount)
		tx.Currency = req.Currency
		tx.OrderID = req.OrderID
	}
	if g.settle != nil {
		g.settle(&tx)
	}
	tx.Raw, _ = json.Marshal(map[string]string{"reference": reference, "status": string(status)})
	return tx, nil
}

type recorder struct {
	mu     sync.Mutex
	events []order.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, e order.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recorder) types() []order.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]order.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	users   *user.InMemoryRepository
	carts   *cart.Service
	addrs   *address.Service
	gateway *fakeGateway
	events  *recorder
	svc     *order.Service
	userID  int
}

var lagos = address.Delivery{Street: "12 Marina Rd", City: "Lagos", ZipCode: "101001"}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:   user.NewInMemoryRepository(),
		carts:   cart.NewService(cart.NewInMemoryRepository(), testMenu, cart.FlatFee(decimal.RequireFromString("3.99"))),
		addrs:   address.NewService(address.NewInMemoryRepository(nil)),
		gateway: &fakeGateway{},
		events:  &recorder{},
	}
	f.svc = order.NewService(f.users, f.carts, f.addrs, f.gateway, order.WithPublisher(f.events))
	u, err := f.users.Create(context.Background(), user.User{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	f.userID = u.ID
	return f
}

func (f *fixture) fill(t *testing.T, menuItemID, qty int) {
	t.Helper()
	_, err := f.carts.Add(context.Background(), f.userID, menuItemID, qty)
	require.NoError(t, err)
}

func (f *fixture) initiate(t *testing.T, orderID string) string {
	t.Helper()
	started, err := f.svc.InitiatePayment(context.Background(), f.userID, orderID, "ada@example.com")
	require.NoError(t, err)
	return started.Reference
}

func (f *fixture) checkout(t *testing.T, method order.PaymentMethod) order.Order {
	t.Helper()
	f.fill(t, 1, 2)
	o, err := f.svc.Checkout(context.Background(), f.userID, order.CheckoutRequest{Address: &lagos, Method: method})
	require.NoError(t, err)
	return o
}

func TestCheckout_EmptyCartCreatesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, f.userID, order.CheckoutRequest{Address: &lagos, Method: order.MethodCash})
	assert.True(t, apperr.IsEmptyCart(err))

	orders, err := f.svc.List(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, f.events.types())
}

func TestCheckout_CashOrderClearsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := f.checkout(t, order.MethodCash)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, order.PaymentNotRequired, o.PaymentStatus)
	assert.Equal(t, "20.00", o.Total.StringFixed(2))
	assert.Equal(t, "3.99", o.DeliveryFee.StringFixed(2))
	assert.Equal(t, f.userID, o.UserID)

	stored, err := f.svc.Get(ctx, f.userID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, stored.ID)

	sum, err := f.carts.Get(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, sum.Items)
	assert.Equal(t, []order.EventType{order.EventCreated}, f.events.types())
}

func TestCheckout_SnapshotIgnoresLaterCartChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := f.checkout(t, order.MethodCash)
	f.fill(t, 1, 5)
	f.fill(t, 2, 1)

	stored, err := f.svc.Get(ctx, f.userID, o.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 2, stored.Items[0].Quantity)
	assert.Equal(t, "20.00", stored.Total.StringFixed(2))
}

func TestCheckout_AddressResolution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fill(t, 1, 1)

	_, err := f.svc.Checkout(ctx, f.userID, order.CheckoutRequest{Method: order.MethodCash})
	assert.True(t, apperr.IsValidation(err))

	bad := address.Delivery{Street: "12 Marina Rd", City: "Lagos"}
	_, err = f.svc.Checkout(ctx, f.userID, order.CheckoutRequest{Address: &bad, Method: order.MethodCash})
	assert.True(t, apperr.IsValidation(err))

	sum, _ := f.carts.Get(ctx, f.userID)
	assert.Len(t, sum.Items, 1, "failed checkout keeps the cart")

	_, err = f.addrs.Add(ctx, f.userID, "Home", lagos, false)
	require.NoError(t, err)
	o, err := f.svc.Checkout(ctx, f.userID, order.CheckoutRequest{Method: order.MethodCash})
	require.NoError(t, err)
	assert.Equal(t, "Lagos", o.DeliveryAddress.City)
}

func TestCheckout_RejectsUnknownMethod(t *testing.T) {
	f := newFixture(t)
	f.fill(t, 1, 1)
	_, err := f.svc.Checkout(context.Background(), f.userID, order.CheckoutRequest{Address: &lagos, Method: "barter"})
	assert.True(t, apperr.IsValidation(err))
}

func TestCheckout_StoreFailureKeepsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const ghost = 404
	_, err := f.carts.Add(ctx, ghost, 1, 1)
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, ghost, order.CheckoutRequest{Address: &lagos, Method: order.MethodCash})
	require.Error(t, err)

	sum, _ := f.carts.Get(ctx, ghost)
	assert.Len(t, sum.Items, 1)
}

func TestCardOrder_InitiateThenVerifyIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := f.checkout(t, order.MethodCard)
	assert.Equal(t, order.StatusPendingPayment, o.Status)
	assert.Equal(t, order.PaymentPending, o.PaymentStatus)

	started, err := f.svc.InitiatePayment(ctx, f.userID, o.ID, "ada@example.com")
	require.NoError(t, err)
	require.Len(t, f.gateway.initiated, 1)
	assert.Equal(t, "23.99", f.gateway.initiated[0].Amount.StringFixed(2))
	assert.Equal(t, "NGN", f.gateway.initiated[0].Currency)
	assert.Equal(t, o.ID, f.gateway.initiated[0].OrderID)

	first, err := f.svc.VerifyPayment(ctx, f.userID, o.ID, started.Reference)
	require.NoError(t, err)
	assert.True(t, first.Changed)
	assert.Equal(t, order.StatusConfirmed, first.Order.Status)
	assert.Equal(t, order.PaymentPaid, first.Order.PaymentStatus)

	second, err := f.svc.VerifyPayment(ctx, f.userID, o.ID, started.Reference)
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Equal(t, first.Order.Status, second.Order.Status)
	assert.Equal(t, first.Order.PaymentStatus, second.Order.PaymentStatus)
	assert.Equal(t, first.Order.UpdatedAt, second.Order.UpdatedAt)

	assert.Equal(t, []order.EventType{order.EventCreated, order.EventPaymentInitiated, order.EventPaymentConfirmed}, f.events.types())

	_, err = f.svc.InitiatePayment(ctx, f.userID, o.ID, "ada@example.com")
	assert.True(t, apperr.IsInvalidTransition(err), "a paid order cannot be charged again")
}

func TestVerify_NonSuccessLeavesOrderUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.checkout(t, order.MethodCard)
	ref := f.initiate(t, o.ID)
	f.gateway.status = payment.StatusFailed

	res, err := f.svc.VerifyPayment(ctx, f.userID, o.ID, ref)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, payment.StatusFailed, res.Transaction.Status)
	assert.Contains(t, string(res.Transaction.Raw), `"failed"`)

	stored, _ := f.svc.Get(ctx, f.userID, o.ID)
	assert.Equal(t, order.StatusPendingPayment, stored.Status)
	assert.Equal(t, order.PaymentPending, stored.PaymentStatus)
}

func TestVerify_UnavailableIsNotAFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.checkout(t, order.MethodCard)
	ref := f.initiate(t, o.ID)
	f.gateway.verifyErr = &apperr.GatewayUnavailableError{Err: context.DeadlineExceeded}

	_, err := f.svc.VerifyPayment(ctx, f.userID, o.ID, ref)
	assert.True(t, apperr.IsGatewayUnavailable(err))

	stored, _ := f.svc.Get(ctx, f.userID, o.ID)
	assert.Equal(t, order.PaymentPending, stored.PaymentStatus)
	assert.Equal(t, order.StatusPendingPayment, stored.Status)
}

func TestInitiate_GatewayErrorKeepsOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.checkout(t, order.MethodCard)
	f.gateway.initErr = &apperr.GatewayError{Message: "Invalid key"}

	_, err := f.svc.InitiatePayment(ctx, f.userID, o.ID, "ada@example.com")
	require.True(t, apperr.IsGateway(err))
	assert.Equal(t, "Invalid key", err.Error())

	stored, _ := f.svc.Get(ctx, f.userID, o.ID)
	assert.Equal(t, order.StatusPendingPayment, stored.Status)
	assert.Empty(t, stored.PaymentReference)
}

func TestInitiate_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cash := f.checkout(t, order.MethodCash)

	_, err := f.svc.InitiatePayment(ctx, f.userID, cash.ID, "ada@example.com")
	assert.True(t, apperr.IsValidation(err))

	card := f.checkout(t, order.MethodCard)
	_, err = f.svc.InitiatePayment(ctx, f.userID, card.ID, "")
	assert.True(t, apperr.IsValidation(err))

	_, err = f.svc.InitiatePayment(ctx, f.userID, "missing", "ada@example.com")
	assert.True(t, apperr.IsNotFound(err))
	assert.Empty(t, f.gateway.initiated)
}

func TestVerify_ReferenceMustMatchInitiation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.checkout(t, order.MethodCard)
	_, err := f.svc.InitiatePayment(ctx, f.userID, o.ID, "ada@example.com")
	require.NoError(t, err)

	_, err = f.svc.VerifyPayment(ctx, f.userID, o.ID, "someone-elses-ref")
	assert.True(t, apperr.IsValidation(err))
	assert.Zero(t, atomic.LoadInt32(&f.gateway.verifyHits))

	_, err = f.svc.VerifyPayment(ctx, f.userID, o.ID, " ")
	assert.True(t, apperr.IsValidation(err))
}

func TestVerify_RequiresInitiationAndOwnReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.checkout(t, order.MethodCard)
	ref := f.initiate(t, first.ID)
	res, err := f.svc.VerifyPayment(ctx, f.userID, first.ID, ref)
	require.NoError(t, err)
	require.True(t, res.Changed)

	second := f.checkout(t, order.MethodCard)
	_, err = f.svc.VerifyPayment(ctx, f.userID, second.ID, ref)
	assert.True(t, apperr.IsValidation(err), "an order without a started payment accepts no reference")

	f.initiate(t, second.ID)
	_, err = f.svc.VerifyPayment(ctx, f.userID, second.ID, ref)
	assert.True(t, apperr.IsValidation(err), "another order's reference is rejected")

	stored, _ := f.svc.Get(ctx, f.userID, second.ID)
	assert.Equal(t, order.StatusPendingPayment, stored.Status)
	assert.Equal(t, order.PaymentPending, stored.PaymentStatus)
}

func TestVerify_TransactionMustSettleThisOrder(t *testing.T) {
	cases := []struct {
		name   string
		settle func(tx *payment.Transaction)
	}{
		{"short amount", func(tx *payment.Transaction) { tx.Amount = 2399 }},
		{"other currency", func(tx *payment.Transaction) { tx.Currency = "USD" }},
		{"other order", func(tx *payment.Transaction) { tx.OrderID = "someone-else" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.fill(t, 1, 48)
			o := f.checkout(t, order.MethodCard)
			assert.Equal(t, "503.99", o.AmountDue().StringFixed(2))
			ref := f.initiate(t, o.ID)
			f.gateway.settle = tc.settle

			res, err := f.svc.VerifyPayment(ctx, f.userID, o.ID, ref)
			assert.True(t, apperr.IsGateway(err), "got %v", err)
			assert.False(t, res.Changed)

			stored, _ := f.svc.Get(ctx, f.userID, o.ID)
			assert.Equal(t, order.StatusPendingPayment, stored.Status)
			assert.Equal(t, order.PaymentPending, stored.PaymentStatus)
		})
	}
}

func TestVerify_ConcurrentCallsConfirmOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.checkout(t, order.MethodCard)
	f.initiate(t, o.ID)

	var (
		wg      sync.WaitGroup
		changed int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.VerifyPayment(ctx, f.userID, o.ID, "ref-1")
			if assert.NoError(t, err) && res.Changed {
				atomic.AddInt32(&changed, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), changed)
	stored, _ := f.svc.Get(ctx, f.userID, o.ID)
	assert.Equal(t, order.StatusConfirmed, stored.Status)
	assert.Equal(t, "ref-1", stored.PaymentReference)
}

func TestAdvance_DeliveredCannotGoBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.checkout(t, order.MethodCash)

	for _, s := range []order.Status{order.StatusConfirmed, order.StatusPreparing, order.StatusDelivering, order.StatusDelivered} {
		_, err := f.svc.Advance(ctx, f.userID, o.ID, s)
		require.NoError(t, err)
	}

	_, err := f.svc.Advance(ctx, f.userID, o.ID, order.StatusPreparing)
	assert.True(t, apperr.IsInvalidTransition(err))
	stored, _ := f.svc.Get(ctx, f.userID, o.ID)
	assert.Equal(t, order.StatusDelivered, stored.Status)

	_, err = f.svc.Cancel(ctx, f.userID, o.ID)
	assert.True(t, apperr.IsInvalidTransition(err))
}

func TestAdvance_CardOrderWaitsForPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.checkout(t, order.MethodCard)

	_, err := f.svc.Advance(ctx, f.userID, o.ID, order.StatusConfirmed)
	assert.True(t, apperr.IsInvalidTransition(err))

	_, err = f.svc.VerifyPayment(ctx, f.userID, o.ID, f.initiate(t, o.ID))
	require.NoError(t, err)
	updated, err := f.svc.Advance(ctx, f.userID, o.ID, order.StatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPreparing, updated.Status)
}

func TestCancel_ThenVerifyIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.checkout(t, order.MethodCard)

	cancelled, err := f.svc.Cancel(ctx, f.userID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, cancelled.Status)

	_, err = f.svc.VerifyPayment(ctx, f.userID, o.ID, "ref-1")
	assert.True(t, apperr.IsInvalidTransition(err))
	stored, _ := f.svc.Get(ctx, f.userID, o.ID)
	assert.Equal(t, order.StatusCancelled, stored.Status)
	assert.Equal(t, order.PaymentPending, stored.PaymentStatus)

	assert.Contains(t, f.events.types(), order.EventCancelled)
}

func TestMissingOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, f.userID, "nope")
	assert.True(t, apperr.IsNotFound(err))
	_, err = f.svc.Advance(ctx, f.userID, "nope", order.StatusConfirmed)
	assert.True(t, apperr.IsNotFound(err))
	_, err = f.svc.VerifyPayment(ctx, f.userID, "nope", "ref-1")
	assert.True(t, apperr.IsNotFound(err))
}

func TestPublishFailureDoesNotFailTheChange(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("broker down")

	o := f.checkout(t, order.MethodCash)
	updated, err := f.svc.Advance(context.Background(), f.userID, o.ID, order.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, updated.Status)
}
