package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/legalease/legalease-admin/internal/auth"
	"github.com/legalease/legalease-admin/internal/handlers"
	"github.com/legalease/legalease-admin/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	adminHandler *handlers.AdminHandler,
	loginEventHandler *handlers.LoginEventHandler,
	tokenManager *auth.TokenManager,
) {
	rateLimitConfig := middleware.DefaultAdminRateLimit()

	router.Route("/api/v1", func(r chi.Router) {
		// All API routes require a valid access token
		r.Use(auth.AuthMiddleware(tokenManager))

		// Superadmin-only admin surface
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSuperadmin())
			r.Use(middleware.RateLimitByIP(rateLimitConfig))

			r.Get("/admin/users/locked", adminHandler.GetLockedAccounts)
			r.Post("/admin/users/{user_id}/unlock", adminHandler.UnlockAccount)
		})

		// Internal feed from the main backend's login path
		r.Post("/internal/login-events", loginEventHandler.RecordLoginEvent)
	})
}
