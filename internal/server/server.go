// Package server assembles the services and the Fiber app.
package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	"github.com/wichananm65/food-order-backend/internal/address"
	"github.com/wichananm65/food-order-backend/internal/auth"
	"github.com/wichananm65/food-order-backend/internal/cart"
	"github.com/wichananm65/food-order-backend/internal/config"
	"github.com/wichananm65/food-order-backend/internal/order"
	"github.com/wichananm65/food-order-backend/internal/payment"
	"github.com/wichananm65/food-order-backend/internal/restaurant"
	"github.com/wichananm65/food-order-backend/internal/user"
)

// Backends are the storage and integration implementations the services
// run on. CatalogCache and Publisher may be nil.
type Backends struct {
	Users        user.Repository
	Addresses    address.Repository
	Carts        cart.Repository
	Catalog      restaurant.Repository
	CatalogCache restaurant.Cache
	Gateway      payment.Gateway
	Publisher    order.Publisher
}

type Services struct {
	Users     *user.Service
	Addresses *address.Service
	Carts     *cart.Service
	Catalog   *restaurant.Service
	Orders    *order.Service
	Issuer    *auth.Issuer
}

// NewServices wires the domain services together.
func NewServices(cfg config.Config, b Backends) *Services {
	catalog := restaurant.NewService(b.Catalog, b.CatalogCache)
	addresses := address.NewService(b.Addresses)
	carts := cart.NewService(b.Carts, catalog, cart.TieredFee(cfg.Delivery.Fee, cfg.Delivery.FreeOver))

	opts := []order.Option{order.WithCurrency(cfg.Payment.Currency)}
	if b.Publisher != nil {
		opts = append(opts, order.WithPublisher(b.Publisher))
	}
	return &Services{
		Users:     user.NewService(b.Users),
		Addresses: addresses,
		Carts:     carts,
		Catalog:   catalog,
		Orders:    order.NewService(b.Users, carts, addresses, b.Gateway, opts...),
		Issuer:    auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.TTL),
	}
}

type publicRoutes interface {
	RegisterPublicRoutes(app fiber.Router)
}

type protectedRoutes interface {
	RegisterProtectedRoutes(app fiber.Router)
}

// New builds the HTTP app. Public routes are registered before the auth
// middleware; everything after it needs a valid token. authMiddleware
// defaults to the JWT middleware of s.Issuer.
func New(cfg config.Config, s *Services, ready func(ctx context.Context) error, authMiddleware fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "food-order-backend",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(requestLogger)

	app.Get("/health", health(ready))

	userHandler := user.NewHandler(s.Users, s.Issuer)
	for _, h := range []publicRoutes{userHandler, restaurant.NewHandler(s.Catalog)} {
		h.RegisterPublicRoutes(app)
	}

	if authMiddleware == nil {
		authMiddleware = s.Issuer.Middleware(nil)
	}
	app.Use(authMiddleware)
	for _, h := range []protectedRoutes{
		userHandler,
		address.NewHandler(s.Addresses),
		cart.NewHandler(s.Carts),
		order.NewHandler(s.Orders),
	} {
		h.RegisterProtectedRoutes(app)
	}
	return app
}

func health(ready func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ready != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				log.WithError(err).Warn("health check failed")
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		} else {
			status = fiber.StatusInternalServerError
		}
	}
	entry := log.WithFields(log.Fields{
		"method":     c.Method(),
		"path":       c.Path(),
		"status":     status,
		"latency_ms": time.Since(start).Milliseconds(),
	})
	if status >= fiber.StatusInternalServerError {
		entry.Error("request")
	} else {
		entry.Debug("request")
	}
	return err
}
