package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Surveys        *handlers.SurveysHandler
	Attachments    *handlers.AttachmentsHandler
	Realtime       *handlers.RealtimeHandler
	Metrics        fiber.Handler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	surveys := app.Group("/surveys")
	surveys.Get("/:token", cfg.Surveys.Get)
	surveys.Post("/:token", cfg.Surveys.Redeem)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireActor())

	tickets := protected.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", auth.RequireSupportAgent(), cfg.Tickets.UpdateTicket)
	tickets.Post("/:id/claim", auth.RequireSupportAgent(), cfg.Tickets.ClaimTicket)
	tickets.Delete("/:id", auth.RequireAdministrator(), cfg.Tickets.DeleteTicket)
	tickets.Get("/:id/messages", cfg.Tickets.ListMessages)
	tickets.Post("/:id/messages", cfg.Tickets.PostMessage)
	tickets.Post("/:id/attachments", cfg.Tickets.UploadAttachment)

	protected.Get("/attachments/:key", cfg.Attachments.Download)
	protected.Get("/realtime/stream", cfg.Realtime.Stream)
}
