package auth

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// HeaderMiddleware injects a token for the user named by the X-User-ID
// header. It stands in for the jwt middleware in handler tests.
func HeaderMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				claims := jwt.MapClaims{"user_id": id}
				if email := c.Get("X-User-Email"); email != "" {
					claims["email"] = email
				}
				c.Locals(ContextKey, &jwt.Token{Claims: claims})
			}
		}
		return c.Next()
	}
}
