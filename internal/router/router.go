package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"auth-gateway/internal/config"
	"auth-gateway/internal/handler"
	"auth-gateway/internal/middleware"
)

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	healthHandler *handler.HealthHandler,
	authHandler *handler.AuthHandler,
	documentHandler *handler.DocumentHandler,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", healthHandler.Check)

	r.Route("/auth", func(auth chi.Router) {
		auth.Post("/login", authHandler.Login)
		auth.Post("/refresh", authHandler.Refresh)
		auth.With(authMiddleware.RequireAuth).Post("/logout", authHandler.Logout)
		auth.With(authMiddleware.RequireAuth).Get("/validate", authHandler.Validate)
	})

	r.With(authMiddleware.RequireAuth).Get("/documents", documentHandler.List)
	r.With(authMiddleware.RequireAuth).Get("/documents/{id}", documentHandler.Get)
	r.With(authMiddleware.RequireAuth).Post("/documents", documentHandler.Create)

	return r
}
