package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bcgov/digital-marketplace-sub005/internal/config"
	"github.com/bcgov/digital-marketplace-sub005/internal/handler"
	"github.com/bcgov/digital-marketplace-sub005/internal/middleware"
	"github.com/bcgov/digital-marketplace-sub005/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	OpportunityHandler *handler.OpportunityHandler
	ProposalHandler    *handler.ProposalHandler
	EvaluationHandler  *handler.EvaluationHandler
	JWTMiddleware      fiber.Handler
}

// Register wires the HTTP routes into the fiber application. Opportunity and
// evaluation writes are government operations; proposal routes stay open to
// vendors because ownership and lifecycle checks live in the services.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	govOnly := middleware.RequireRole("admin", "gov")

	if deps.OpportunityHandler != nil {
		opportunities := api.Group("/opportunities", jwtMiddleware)
		deps.OpportunityHandler.Register(opportunities)

		if deps.ProposalHandler != nil {
			deps.ProposalHandler.RegisterOpportunityRoutes(opportunities)
		}
		if deps.EvaluationHandler != nil {
			evaluationRoutes := api.Group("/opportunities", jwtMiddleware, govOnly)
			deps.EvaluationHandler.RegisterOpportunityRoutes(evaluationRoutes)
		}
	}

	if deps.ProposalHandler != nil {
		proposals := api.Group("/proposals", jwtMiddleware)
		deps.ProposalHandler.Register(proposals)
	}

	if deps.EvaluationHandler != nil {
		evaluations := api.Group("/evaluations", jwtMiddleware, govOnly,
			middleware.RateLimit("evaluations", cfg.RateLimitMax, cfg.RateLimitWindow))
		deps.EvaluationHandler.Register(evaluations)
	}
}
