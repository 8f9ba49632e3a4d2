package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/sahilchouksey/uniguide-api/services"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

type HealthChecker interface {
	Check(ctx context.Context) *services.HealthReport
}

// HandleCheckHealth reports dependency status. It always answers 200 so that
// "unhealthy" is visible in the body.
func HandleCheckHealth(health HealthChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(health.Check(c.UserContext()))
	}
}

// HandleRoot serves the welcome document.
func HandleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Welcome to UniGuide API",
		"version": Version,
		"health":  "/health",
	})
}
