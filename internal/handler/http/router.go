package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Abdallah85/Collaborative-Notes-App/internal/domain"
	"github.com/Abdallah85/Collaborative-Notes-App/internal/service"
	"github.com/Abdallah85/Collaborative-Notes-App/pkg/health"
	"github.com/Abdallah85/Collaborative-Notes-App/pkg/middleware"
)

// NewRouter creates a chi router with all auth service routes registered.
func NewRouter(
	authService *service.AuthService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("auth"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Session resolver that bridges the guard to the auth service. Tokens
	// resolve against the live user record, so stale role or email claims
	// never leak through.
	resolveSession := func(ctx context.Context, token string) (*middleware.Identity, error) {
		user, err := authService.ResolveSession(ctx, token)
		if err != nil {
			return nil, err
		}
		return &middleware.Identity{
			ID:    user.ID,
			Email: user.Email,
			Role:  user.Role.String(),
		}, nil
	}

	authHandler := NewAuthHandler(authService, logger)

	// Auth endpoints (public)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password", authHandler.ResetPassword)

		// Authenticated auth endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(resolveSession))

			r.Post("/change-password", authHandler.ChangePassword)
			r.Get("/me", authHandler.Me)
		})
	})

	// Admin user management endpoints
	userHandler := NewUserHandler(authService, logger)
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Authenticate(resolveSession))
		r.Use(middleware.RequireRole(domain.RoleAdmin.String()))

		r.Get("/", userHandler.List)
		r.Delete("/{id}", userHandler.Delete)
	})

	return r
}
