// Package payment talks to the card payment provider. It knows nothing
// about orders; reconciling a verified transaction with an order is the
// caller's job.
package payment

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

type InitiateRequest struct {
	Amount   decimal.Decimal
	Currency string
	Email    string
	OrderID  string
}

// Initiation is what the client needs to send the customer to the
// provider's checkout page.
type Initiation struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorizationUrl"`
	AccessCode       string `json:"accessCode,omitempty"`
}

// Transaction is the provider's view of a payment. OrderID is the order id
// sent at initiation, when the provider echoes it back. Raw holds the
// response body as received.
type Transaction struct {
	Reference     string          `json:"reference"`
	OrderID       string          `json:"orderId,omitempty"`
	Amount        int64           `json:"amount"`
	Currency      string          `json:"currency,omitempty"`
	Status        Status          `json:"status"`
	GatewayStatus string          `json:"gatewayStatus,omitempty"`
	Raw           json.RawMessage `json:"raw,omitempty"`
}

func (t Transaction) Succeeded() bool { return t.Status == StatusSuccess }

// Gateway initiates and verifies card payments. Implementations return
// *apperr.GatewayError when the provider rejects a call and
// *apperr.GatewayUnavailableError when it cannot be reached in time.
type Gateway interface {
	Initiate(ctx context.Context, req InitiateRequest) (Initiation, error)
	Verify(ctx context.Context, reference string) (Transaction, error)
}

// ToMinorUnits converts an amount to the provider's integer minor unit,
// rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func statusFromGateway(s string) Status {
	switch s {
	case "success":
		return StatusSuccess
	case "failed", "abandoned", "reversed":
		return StatusFailed
	default:
		return StatusPending
	}
}
