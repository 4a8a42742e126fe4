package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/taskhaven/taskhaven/internal/auth"
	"github.com/taskhaven/taskhaven/internal/handlers"
	"github.com/taskhaven/taskhaven/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	twoFactorHandler *handlers.TwoFactorHandler,
	tokenManager *auth.TokenManager,
) {
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	router.Route("/api/users", func(r chi.Router) {
		// Public routes, throttled per IP
		r.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/", authHandler.Register)
		r.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/login", authHandler.Login)
		r.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/verify-2fa", authHandler.VerifyTwoFactor)

		// Session-protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(tokenManager))

			r.Get("/me", authHandler.Me)

			r.Get("/2fa/generate", twoFactorHandler.GenerateSecret)
			r.Post("/2fa/enable", twoFactorHandler.Enable)
			r.Post("/2fa/disable", twoFactorHandler.Disable)
		})
	})
}
