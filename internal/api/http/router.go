package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/loan-service/internal/api/http/handlers"
	"github.com/spec-kit/loan-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Profile        *handlers.ProfileHandler
	Loans          *handlers.LoansHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/verify-otp", cfg.Auth.VerifyOTP)
	authGroup.Post("/resend-otp", cfg.Auth.ResendOTP)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/verify-login-otp", cfg.Auth.VerifyLoginOTP)
	authGroup.Post("/resend-login-otp", cfg.Auth.ResendLoginOTP)
	authGroup.Post("/admin/login", cfg.Auth.AdminLogin)
	authGroup.Post("/forgot-password", cfg.Auth.ForgotPassword)
	authGroup.Post("/verify-reset-otp", cfg.Auth.VerifyResetOTP)
	authGroup.Post("/reset-password", cfg.Auth.ResetPassword)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Auth.Me)

	profile := api.Group("/profile", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	profile.Get("/", cfg.Profile.Get)
	profile.Put("/", cfg.Profile.Save)

	loans := api.Group("/loans", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	loans.Get("/", cfg.Loans.List)
	loans.Post("/", cfg.Loans.Submit)
	loans.Get("/:id", cfg.Loans.Get)

	admin := api.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Get("/loans/pending", cfg.Admin.PendingLoans)
	admin.Put("/loans/:id/approve", cfg.Admin.ApproveLoan)
	admin.Put("/loans/:id/reject", cfg.Admin.RejectLoan)
	admin.Get("/rejection-reasons", cfg.Admin.RejectionReasons)
}
