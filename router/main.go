package router

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sahilchouksey/uniguide-api/handlers"
	course_handlers "github.com/sahilchouksey/uniguide-api/handlers/course"
	university_handlers "github.com/sahilchouksey/uniguide-api/handlers/university"
	"github.com/sahilchouksey/uniguide-api/repository"
	"github.com/sahilchouksey/uniguide-api/services"
	"github.com/sahilchouksey/uniguide-api/utils/auth"
	"github.com/sahilchouksey/uniguide-api/utils/metrics"
	"github.com/sahilchouksey/uniguide-api/utils/middleware"
	"github.com/sahilchouksey/uniguide-api/utils/response"
)

// Dependencies are the services the HTTP routes call into.
type Dependencies struct {
	Catalog  *services.CatalogService
	Refresh  *services.RefreshService
	Health   *services.HealthService
	Runs     repository.RefreshLogRepository
	Security middleware.SecurityConfig
	// JWT guards the operator routes. Nil leaves them open.
	JWT    *auth.JWTManager
	Logger *zap.Logger
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	middleware.SetupSecurity(app, deps.Security, deps.Logger)

	courseHandler := course_handlers.NewCourseHandler(deps.Catalog, deps.Refresh, deps.Runs, deps.Logger)
	universityHandler := university_handlers.NewUniversityHandler(deps.Catalog, deps.Logger)

	app.Get("/", handlers.HandleRoot)
	app.Get("/health", handlers.HandleCheckHealth(deps.Health))
	app.Get("/metrics", metrics.Handler())

	// Catalog reads (public)
	app.Get("/courses", courseHandler.ListCourses)
	app.Get("/universities", universityHandler.ListUniversities)

	// Operator routes
	adminOnly := middleware.RequireAdmin(deps.JWT)
	app.Post("/courses/refresh", adminOnly, courseHandler.Refresh)
	app.Get("/refresh/runs", adminOnly, courseHandler.ListRuns)

	// Anything unmatched
	app.Use(func(c *fiber.Ctx) error {
		return response.NotFound(c, "Route not found")
	})

	if deps.JWT == nil {
		deps.Logger.Warn("REFRESH_API_SECRET not set, refresh endpoints are unauthenticated")
	}
}
