package payment

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/wichananm65/food-order-backend/internal/apperr"
)

type PaystackConfig struct {
	BaseURL     string
	SecretKey   string
	CallbackURL string
	Timeout     time.Duration
}

// Paystack is a Gateway backed by the Paystack transaction API. Calls are
// never retried.
type Paystack struct {
	baseURL     string
	secretKey   string
	callbackURL string
	timeout     time.Duration
}

func NewPaystack(cfg PaystackConfig) *Paystack {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Paystack{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:   cfg.SecretKey,
		callbackURL: cfg.CallbackURL,
		timeout:     timeout,
	}
}

type initializeRequest struct {
	Amount      int64             `json:"amount"`
	Email       string            `json:"email"`
	Currency    string            `json:"currency,omitempty"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type envelope struct {
	Status  *bool           `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Status          string          `json:"status"`
	Reference       string          `json:"reference"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	GatewayResponse string          `json:"gateway_response"`
	Metadata        json.RawMessage `json:"metadata"`
}

// orderID reads the orderId set at initiation. Metadata the provider sends
// in another shape yields "".
func (d verifyData) orderID() string {
	var m struct {
		OrderID string `json:"orderId"`
	}
	if len(d.Metadata) == 0 || json.Unmarshal(d.Metadata, &m) != nil {
		return ""
	}
	return m.OrderID
}

func (p *Paystack) Initiate(ctx context.Context, req InitiateRequest) (Initiation, error) {
	body := initializeRequest{
		Amount:      ToMinorUnits(req.Amount),
		Email:       req.Email,
		Currency:    req.Currency,
		CallbackURL: p.callbackURL,
	}
	if req.OrderID != "" {
		body.Metadata = map[string]string{"orderId": req.OrderID}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Initiation{}, err
	}

	env, _, err := p.call(ctx, fiber.Post(p.baseURL+"/transaction/initialize").
		ContentType(fiber.MIMEApplicationJSON).
		Body(payload))
	if err != nil {
		return Initiation{}, err
	}

	var data initializeData
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Reference == "" || data.AuthorizationURL == "" {
		return Initiation{}, &apperr.GatewayError{Message: "malformed initialize response from payment provider"}
	}
	log.WithFields(log.Fields{
		"order_id":  req.OrderID,
		"reference": data.Reference,
		"amount":    body.Amount,
	}).Info("payment initiated")
	return Initiation{
		Reference:        data.Reference,
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
	}, nil
}

func (p *Paystack) Verify(ctx context.Context, reference string) (Transaction, error) {
	if strings.TrimSpace(reference) == "" {
		return Transaction{}, apperr.Validation("reference", "is required")
	}
	env, raw, err := p.call(ctx, fiber.Get(p.baseURL+"/transaction/verify/"+url.PathEscape(reference)))
	if err != nil {
		return Transaction{}, err
	}

	var data verifyData
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Status == "" {
		return Transaction{}, &apperr.GatewayError{Message: "malformed verify response from payment provider"}
	}
	if data.Reference != "" && data.Reference != reference {
		return Transaction{}, &apperr.GatewayError{Message: "payment provider returned a different reference"}
	}
	return Transaction{
		Reference:     reference,
		OrderID:       data.orderID(),
		Amount:        data.Amount,
		Currency:      data.Currency,
		Status:        statusFromGateway(data.Status),
		GatewayStatus: data.Status,
		Raw:           json.RawMessage(raw),
	}, nil
}

// call sends the request and decodes the provider envelope. Transport
// failures become GatewayUnavailableError; status:false becomes a
// GatewayError carrying the provider's message.
func (p *Paystack) call(ctx context.Context, a *fiber.Agent) (envelope, []byte, error) {
	timeout := p.timeout
	if dl, ok := ctx.Deadline(); ok {
		remaining := time.Until(dl)
		if remaining <= 0 {
			fiber.ReleaseAgent(a)
			return envelope{}, nil, &apperr.GatewayUnavailableError{Err: context.DeadlineExceeded}
		}
		if remaining < timeout {
			timeout = remaining
		}
	}
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(a)
		return envelope{}, nil, &apperr.GatewayUnavailableError{Err: err}
	}

	code, body, errs := a.
		Set(fiber.HeaderAuthorization, "Bearer "+p.secretKey).
		Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON).
		Timeout(timeout).
		Bytes()
	if len(errs) > 0 {
		log.WithError(errs[0]).Warn("payment provider unreachable")
		return envelope{}, nil, &apperr.GatewayUnavailableError{Err: errs[0]}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Status == nil {
		if code >= fiber.StatusInternalServerError {
			return envelope{}, nil, &apperr.GatewayUnavailableError{Err: fiber.NewError(code, "payment provider error")}
		}
		return envelope{}, nil, &apperr.GatewayError{Message: "unexpected response from payment provider"}
	}
	if !*env.Status {
		msg := env.Message
		if msg == "" {
			msg = "payment provider rejected the request"
		}
		return envelope{}, nil, &apperr.GatewayError{Message: msg}
	}
	return env, body, nil
}
