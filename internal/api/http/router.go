package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/violation-service/internal/api/http/handlers"
	"github.com/spec-kit/violation-service/internal/auth"
	"github.com/spec-kit/violation-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Me             *handlers.MeHandler
	AdminUsers     *handlers.AdminUsersHandler
	AdminCases     *handlers.AdminCasesHandler
	AdminQueries   *handlers.AdminQueriesHandler
	Stats          *handlers.StatsHandler
	Files          *handlers.FilesHandler
	AuthMiddleware *auth.AuthMiddleware
	RateLimiter    *RateLimiter
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}
	if cfg.Files != nil {
		app.Get("/files/*", cfg.Files.Serve)
	}

	authGroup := app.Group("/auth")
	if cfg.RateLimiter != nil {
		authGroup.Use(cfg.RateLimiter.ByIP())
	}
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	me := app.Group("/me", cfg.AuthMiddleware.Handle)
	me.Get("", cfg.Me.Profile)
	me.Get("/stats", cfg.Me.Stats)
	me.Post("/password", cfg.Auth.ChangePassword)
	me.Get("/cases", cfg.Me.ListCases)
	me.Get("/cases/:id", cfg.Me.GetCase)
	me.Post("/cases/:id/dispute", cfg.Me.DisputeCase)
	me.Post("/cases/:id/pay", cfg.Me.PayCase)
	me.Get("/queries", cfg.Me.ListQueries)
	me.Post("/queries", cfg.Me.CreateQuery)
	me.Get("/queries/:id", cfg.Me.GetQuery)
	me.Post("/queries/:id/responses", cfg.Me.RespondToQuery)
	me.Post("/attachments", cfg.Me.UploadAttachment)
	me.Delete("/attachments/:id", cfg.Me.DeleteAttachment)
	me.Get("/notifications", cfg.Me.Notifications)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())

	users := admin.Group("/users")
	users.Get("", cfg.AdminUsers.List)
	users.Post("", cfg.AdminUsers.Create)
	users.Post("/bulk", cfg.AdminUsers.Bulk)
	users.Get("/:id", cfg.AdminUsers.Get)
	users.Patch("/:id", cfg.AdminUsers.Update)
	users.Delete("/:id", cfg.AdminUsers.Delete)
	users.Post("/:id/actions", cfg.AdminUsers.Action)

	cases := admin.Group("/cases")
	cases.Get("", cfg.AdminCases.List)
	cases.Post("", cfg.AdminCases.Create)
	cases.Post("/bulk-status", cfg.AdminCases.BulkStatus)
	cases.Get("/:id", cfg.AdminCases.Get)
	cases.Patch("/:id", cfg.AdminCases.Update)
	cases.Delete("/:id", cfg.AdminCases.Delete)
	cases.Get("/:id/payments", cfg.AdminCases.Payments)
	admin.Get("/payments", cfg.AdminCases.ListPayments)

	queries := admin.Group("/queries")
	queries.Get("", cfg.AdminQueries.List)
	queries.Post("/bulk-status", cfg.AdminQueries.BulkStatus)
	queries.Patch("/responses/:id", cfg.AdminQueries.EditResponse)
	queries.Delete("/responses/:id", cfg.AdminQueries.DeleteResponse)
	queries.Get("/:id", cfg.AdminQueries.Get)
	queries.Patch("/:id", cfg.AdminQueries.Update)
	queries.Delete("/:id", cfg.AdminQueries.Delete)
	queries.Post("/:id/responses", cfg.AdminQueries.AddResponse)
	admin.Post("/uploads", cfg.AdminQueries.Upload)
	admin.Delete("/attachments/:id", cfg.AdminQueries.DeleteAttachment)

	stats := admin.Group("/stats")
	stats.Get("", cfg.Stats.Dashboard)
	stats.Get("/users", cfg.Stats.Users)
	stats.Get("/cases", cfg.Stats.Cases)
	stats.Get("/queries", cfg.Stats.Queries)
}
