package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hotel-ops/internal/api/http/handlers"
	"github.com/spec-kit/hotel-ops/internal/auth"
	"github.com/spec-kit/hotel-ops/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Staff          *handlers.StaffHandler
	Tickets        *handlers.TicketsHandler
	Policies       *handlers.PoliciesHandler
	Sweep          *handlers.SweepHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/staff/login", cfg.Staff.Login)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, cfg.Staff.ChangePassword)

	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireStaffRole())

	api.Post("/conversations/:id/ticket", cfg.Tickets.EnsureTicket)

	api.Get("/hotels/:hotelId/tickets", cfg.Tickets.ListTickets)
	api.Get("/tickets/:id", cfg.Tickets.GetTicket)
	api.Get("/tickets/:id/audit", cfg.Tickets.GetAuditTrail)
	api.Patch("/tickets/:id", cfg.Tickets.UpdateTicket)
	api.Post("/tickets/:id/assign", cfg.Tickets.AssignTicket)
	api.Post("/tickets/:id/first-response", cfg.Tickets.RecordFirstResponse)
	api.Post("/tickets/:id/resolve", cfg.Tickets.ResolveTicket)
	api.Post("/tickets/:id/close", cfg.Tickets.CloseTicket)

	api.Get("/hotels/:hotelId/sla-policies", cfg.Policies.ListPolicies)
	api.Post("/hotels/:hotelId/sla-policies",
		auth.RequireStaffRole(domain.StaffRoleManager, domain.StaffRoleAdmin), cfg.Policies.CreatePolicy)
	api.Post("/sla-policies/:id/deactivate",
		auth.RequireStaffRole(domain.StaffRoleManager, domain.StaffRoleAdmin), cfg.Policies.DeactivatePolicy)

	// shared-secret gated; intended for the external periodic job runner
	app.Post("/internal/escalation-sweep", cfg.Sweep.Trigger)
}
