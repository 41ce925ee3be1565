package order

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/food-order-backend/internal/address"
	"github.com/wichananm65/food-order-backend/internal/apperr"
	"github.com/wichananm65/food-order-backend/internal/auth"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app fiber.Router) {
	app.Post("/api/v1/orders", h.createOrder)
	app.Get("/api/v1/orders", h.getOrders)
	app.Get("/api/v1/orders/:id", h.getOrder)
	app.Post("/api/v1/orders/:id/payment", h.initiatePayment)
	app.Get("/api/v1/orders/:id/payment/verify/:reference", h.verifyPayment)
	// Fulfillment side: kitchen and courier tooling report progress here.
	// Any signed-in caller may drive their own orders through it.
	app.Patch("/api/v1/orders/:id/status", h.updateStatus)
	app.Post("/api/v1/orders/:id/cancel", h.cancelOrder)
}

type createOrderRequest struct {
	DeliveryAddress *address.Delivery `json:"deliveryAddress,omitempty"`
	AddressID       int               `json:"addressId,omitempty"`
	PaymentMethod   string            `json:"paymentMethod"`
}

type initiatePaymentRequest struct {
	Email string `json:"email,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) createOrder(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	payload := new(createOrderRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	created, err := h.service.Checkout(c.UserContext(), userID, CheckoutRequest{
		AddressID: payload.AddressID,
		Address:   payload.DeliveryAddress,
		Method:    PaymentMethod(payload.PaymentMethod),
	})
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// getOrders returns the authenticated user's orders, newest first.
func (h *Handler) getOrders(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	orders, err := h.service.List(c.UserContext(), userID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if orders == nil {
		orders = []Order{}
	}
	return c.JSON(orders)
}

func (h *Handler) getOrder(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	o, err := h.service.Get(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(o)
}

func (h *Handler) initiatePayment(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	payload := new(initiatePaymentRequest)
	if len(c.Body()) > 0 {
		if err := c.BodyParser(payload); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		}
	}
	email := payload.Email
	if email == "" {
		email = auth.Email(c)
	}

	started, err := h.service.InitiatePayment(c.UserContext(), userID, c.Params("id"), email)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(started)
}

func (h *Handler) verifyPayment(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	res, err := h.service.VerifyPayment(c.UserContext(), userID, c.Params("id"), c.Params("reference"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(res)
}

func (h *Handler) updateStatus(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	payload := new(updateStatusRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	to := Status(payload.Status)
	if !to.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid status"})
	}

	updated, err := h.service.Advance(c.UserContext(), userID, c.Params("id"), to)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(updated)
}

func (h *Handler) cancelOrder(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	updated, err := h.service.Cancel(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(updated)
}
