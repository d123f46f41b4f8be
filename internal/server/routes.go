package server

import (
	"github.com/go-chi/chi/v5"

	"github.com/handlescope/handlescope/internal/metrics"
	"github.com/handlescope/handlescope/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	if s.opts.HealthEnabled {
		s.router.Get("/health", handlers.HealthHandler)
		s.router.Get("/health/live", handlers.LivenessHandler)
		s.router.Get("/health/ready", handlers.ReadinessHandler)
	}

	s.router.Get("/version", handlers.VersionHandler)

	if s.opts.MetricsEnabled {
		s.router.Get("/metrics", metrics.Handler().ServeHTTP)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/check", handlers.CheckHandler)
		r.Post("/check/bulk", handlers.BulkCheckHandler)
		r.Get("/platforms", handlers.PlatformsHandler)
		r.Get("/history", handlers.HistoryHandler)
	})
}
