// Package apperr holds the error kinds shared by the ordering flow and maps
// them onto HTTP responses.
package apperr

import (
	"fmt"

	"github.com/pkg/errors"
)

// ValidationError reports malformed input, such as a blank address field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// EmptyCartError is returned when checking out a cart with no items.
type EmptyCartError struct{}

func (EmptyCartError) Error() string { return "cart is empty" }

var ErrEmptyCart error = EmptyCartError{}

// NotFoundError names the missing resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NotFound(resource string, id interface{}) error {
	s := ""
	if id != nil {
		s = fmt.Sprint(id)
	}
	return &NotFoundError{Resource: resource, ID: s}
}

// InvalidTransitionError is an order status change the lifecycle forbids.
type InvalidTransitionError struct {
	From   string
	To     string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// GatewayError carries the payment provider's rejection message verbatim.
type GatewayError struct {
	Message string
}

func (e *GatewayError) Error() string { return e.Message }

// GatewayUnavailableError means the provider could not be reached or timed
// out. Order state is left untouched when this is returned.
type GatewayUnavailableError struct {
	Err error
}

func (e *GatewayUnavailableError) Error() string {
	if e.Err == nil {
		return "payment provider unavailable"
	}
	return "payment provider unavailable: " + e.Err.Error()
}

func (e *GatewayUnavailableError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsEmptyCart(err error) bool {
	var target EmptyCartError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsInvalidTransition(err error) bool {
	var target *InvalidTransitionError
	return errors.As(err, &target)
}

func IsGateway(err error) bool {
	var target *GatewayError
	return errors.As(err, &target)
}

func IsGatewayUnavailable(err error) bool {
	var target *GatewayUnavailableError
	return errors.As(err, &target)
}
