package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/platefull/platefull/internal/config"
	"github.com/platefull/platefull/internal/graph"
	"github.com/platefull/platefull/pkg/health"
	"github.com/platefull/platefull/pkg/middleware"
)

// newRouter creates a chi router with the GraphQL endpoint and the
// operational endpoints registered.
func newRouter(
	cfg *config.Config,
	graphHandler *graph.Handler,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Environment:    cfg.Environment,
	}))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing("platefull-api"))
	r.Use(middleware.PrometheusMetrics("platefull-api"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// GraphQL endpoint
	r.Post("/graphql", graphHandler.ServeHTTP)

	return r
}
