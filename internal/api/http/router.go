package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/verification-service/internal/api/http/handlers"
	"github.com/spec-kit/verification-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Requests       *handlers.RequestsHandler
	Recurring      *handlers.RecurringHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	requests := app.Group("/requests", cfg.AuthMiddleware.Handle)
	requests.Post("", auth.RequireRole(auth.RoleCustomer, auth.RoleOps), cfg.Requests.CreateRequest)
	requests.Get("", cfg.Requests.ListRequests)
	requests.Get("/:id", cfg.Requests.GetRequest)
	requests.Get("/:id/actions", cfg.Requests.PossibleActions)
	requests.Post("/:id/actions", cfg.Requests.ExecuteAction)
	requests.Get("/:id/history", cfg.Requests.ListHistory)

	requests.Get("/:id/recurring/progress", cfg.Recurring.Progress)
	occurrences := requests.Group("/:id/occurrences", auth.RequireRole(auth.RoleAgent, auth.RoleOps))
	occurrences.Post("/:number/complete", cfg.Recurring.CompleteOccurrence)
	occurrences.Post("/:number/fail", cfg.Recurring.FailOccurrence)
	occurrences.Post("/:number/skip", cfg.Recurring.SkipOccurrence)
}
