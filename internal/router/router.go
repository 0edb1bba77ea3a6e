package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/prepstack/prepstack-api/internal/config"
	"github.com/prepstack/prepstack-api/internal/handler"
	"github.com/prepstack/prepstack-api/internal/middleware"
	"github.com/prepstack/prepstack-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	GradingHandler        *handler.GradingHandler
	CodeSubmissionHandler *handler.CodeSubmissionHandler
	JWTMiddleware         fiber.Handler
	DB                    *gorm.DB
	Redis                 *redis.Client
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.DB, deps.Redis))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.GradingHandler != nil {
		grade := api.Group("/grade", jwtMiddleware)
		deps.GradingHandler.Register(grade)
	}

	if deps.CodeSubmissionHandler != nil {
		code := api.Group("/code/submissions", jwtMiddleware,
			middleware.RateLimit("code_submissions", cfg.SubmitBurstLimit, cfg.SubmitBurstWindow))
		deps.CodeSubmissionHandler.Register(code)
	}
}
