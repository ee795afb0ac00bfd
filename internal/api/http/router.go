package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/automation-hub/internal/api/http/handlers"
	"github.com/spec-kit/automation-hub/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Requests       *handlers.RequestsHandler
	Analysis       *handlers.AnalysisHandler
	ScriptTree     *handlers.ScriptTreeHandler
	Registrations  *handlers.RegistrationsHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Health.Root)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/register", cfg.Auth.Register)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	protected.Get("/users/me", cfg.Auth.Me)

	// Request ordering matters: /requests/stats must register before
	// /requests/:id or fiber will treat "stats" as an id.
	requests := protected.Group("/requests")
	requests.Get("/stats", cfg.Requests.Stats)
	requests.Get("", cfg.Requests.List)
	requests.Post("", cfg.Requests.Create)
	requests.Get("/:id", cfg.Requests.Get)
	requests.Put("/:id", cfg.Requests.Update)
	requests.Delete("/:id", cfg.Requests.Delete)
	requests.Get("/:id/timeline", cfg.Requests.Timeline)
	requests.Get("/:id/comments", cfg.Requests.ListComments)
	requests.Post("/:id/comments", cfg.Requests.AddComment)

	developer := protected.Group("", auth.RequireDeveloper())

	developer.Post("/requests/:id/result-files", cfg.Requests.SubmitResultFiles)
	developer.Delete("/requests/:id/result-files/:fileId", cfg.Requests.DeleteResultFile)
	developer.Post("/requests/:id/analyze", cfg.Analysis.Analyze)
	developer.Get("/analysis/status", cfg.Analysis.Status)

	tree := developer.Group("/script-tree")
	tree.Get("/export", cfg.ScriptTree.Export)
	tree.Get("", cfg.ScriptTree.GetTree)
	tree.Post("", cfg.ScriptTree.CreateNode)
	tree.Post("/folder", cfg.ScriptTree.CreateFolder)
	tree.Post("/file", cfg.ScriptTree.CreateFile)
	tree.Get("/:id/move-targets", cfg.ScriptTree.MoveTargets)
	tree.Put("/:id", cfg.ScriptTree.UpdateNode)
	tree.Delete("/:id", cfg.ScriptTree.DeleteNode)

	users := developer.Group("/users")
	users.Get("", cfg.Users.List)
	users.Post("", cfg.Users.Create)
	users.Post("/:id/promote", cfg.Users.Promote)
	users.Post("/:id/demote", cfg.Users.Demote)
	users.Delete("/:id", cfg.Users.Delete)

	registrations := developer.Group("/registration-requests")
	registrations.Get("", cfg.Registrations.List)
	registrations.Post("/:id/approve", cfg.Registrations.Approve)
	registrations.Post("/:id/reject", cfg.Registrations.Reject)

	developer.Post("/notifications/email", cfg.Notifications.SendEmail)
}
