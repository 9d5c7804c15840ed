package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/coachhub/coach-platform/internal/api/http/handlers"
	"github.com/coachhub/coach-platform/internal/gate"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Accounts *handlers.AccountsHandler
	Areas    *handlers.AreasHandler

	AdminGate        *gate.Middleware
	DashboardGate    *gate.Middleware
	NutritionistGate *gate.Middleware
	PersonalGate     *gate.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Accounts.Register)
	authGroup.Post("/login", cfg.Accounts.Login)
	authGroup.Post("/logout", cfg.Accounts.Logout)
	authGroup.Get("/verify", cfg.Accounts.Verify)

	// The gate redirects denied visitors to these routes.
	app.Get("/login", cfg.Accounts.LoginPage)

	dashboard := app.Group("/dashboard", cfg.DashboardGate.Handle)
	dashboard.Get("/home", cfg.Areas.Home)
	dashboard.Get("/profile", cfg.Areas.Home)
	dashboard.Put("/profile", cfg.Areas.UpdateMeasurements)

	admin := app.Group("/admin", cfg.AdminGate.Handle)
	admin.Get("/login", cfg.Accounts.LoginPage)
	admin.Get("/home", cfg.Areas.Home)
	admin.Get("/users", cfg.Areas.ListProfiles)

	nutritionist := app.Group("/nutritionist", cfg.NutritionistGate.Handle)
	nutritionist.Get("/login", cfg.Accounts.LoginPage)
	nutritionist.Get("/home", cfg.Areas.Home)

	personal := app.Group("/personal", cfg.PersonalGate.Handle)
	personal.Get("/login", cfg.Accounts.LoginPage)
	personal.Get("/home", cfg.Areas.Home)
	personal.Get("/students", cfg.Areas.PersonalStudents)
}
