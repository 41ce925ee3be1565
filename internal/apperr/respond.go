package apperr

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Status maps an error onto the HTTP status and the message shown to the
// client.
func Status(err error) (int, string) {
	var (
		validation  *ValidationError
		notFound    *NotFoundError
		transition  *InvalidTransitionError
		gateway     *GatewayError
		unavailable *GatewayUnavailableError
		fiberErr    *fiber.Error
	)
	switch {
	case errors.As(err, &validation):
		return fiber.StatusBadRequest, validation.Error()
	case IsEmptyCart(err):
		return fiber.StatusBadRequest, ErrEmptyCart.Error()
	case errors.As(err, &notFound):
		return fiber.StatusNotFound, notFound.Error()
	case errors.As(err, &transition):
		return fiber.StatusConflict, "could not update order"
	case errors.As(err, &gateway):
		return fiber.StatusBadGateway, gateway.Message
	case errors.As(err, &unavailable):
		return fiber.StatusServiceUnavailable, "payment provider unavailable, try again"
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message
	default:
		return fiber.StatusInternalServerError, "internal server error"
	}
}

// Respond writes err as a {"message": ...} body.
func Respond(c *fiber.Ctx, err error) error {
	code, msg := Status(err)
	entry := log.WithFields(log.Fields{
		"method": c.Method(),
		"path":   c.Path(),
		"status": code,
	}).WithError(err)
	switch {
	case code >= fiber.StatusInternalServerError:
		entry.Error("request failed")
	case IsInvalidTransition(err):
		entry.Warn("rejected order transition")
	default:
		entry.Debug("request rejected")
	}
	return c.Status(code).JSON(fiber.Map{"message": msg})
}
