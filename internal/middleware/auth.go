package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// AuthMiddleware provides Bearer token authentication. When token is
// empty any non-empty Bearer token is accepted. Public paths (health,
// metrics, swagger) bypass authentication.
func AuthMiddleware(token string) fiber.Handler {
	publicPrefixes := []string{"/health", "/api/v1/health", "/metrics", "/swagger"}

	return func(c fiber.Ctx) error {
		path := c.Path()

		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(path, prefix) {
				return c.Next()
			}
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing Authorization header",
			})
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid Authorization header format, expected 'Bearer <token>'",
			})
		}

		bearer := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if bearer == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "empty bearer token",
			})
		}

		if token != "" && subtle.ConstantTimeCompare([]byte(bearer), []byte(token)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid bearer token",
			})
		}

		c.Locals("auth_token", bearer)
		return c.Next()
	}
}
