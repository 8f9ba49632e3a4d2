package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sahilchouksey/uniguide-api/utils/auth"
	"github.com/sahilchouksey/uniguide-api/utils/response"
)

// RequireAdmin validates the bearer token and checks for the admin role. With
// a nil manager the guard is disabled and every request passes.
func RequireAdmin(jwtManager *auth.JWTManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if jwtManager == nil {
			return c.Next()
		}

		// Get token from Authorization header
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return response.Unauthorized(c, "Missing authorization token")
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Unauthorized(c, "Invalid authorization format")
		}

		claims, err := jwtManager.ValidateToken(parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				return response.Unauthorized(c, "Token has expired")
			}
			return response.Unauthorized(c, "Invalid token")
		}

		if claims.Role != auth.RoleAdmin {
			return response.Forbidden(c, "Admin access required")
		}

		c.Locals("admin_subject", claims.Subject)
		return c.Next()
	}
}
