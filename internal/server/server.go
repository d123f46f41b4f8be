// Package server wires the HTTP surface: routing, middleware, and the
// lifecycle of the listener.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/handlescope/handlescope/internal/config"
	"github.com/handlescope/handlescope/internal/core/engine"
	"github.com/handlescope/handlescope/internal/core/store"
	apperrors "github.com/handlescope/handlescope/internal/errors"
	"github.com/handlescope/handlescope/internal/observability"
	"github.com/handlescope/handlescope/internal/server/handlers"
	servermw "github.com/handlescope/handlescope/internal/server/middleware"
)

// Options carries the dependencies and feature switches for a server.
type Options struct {
	Engine *engine.Orchestrator
	Store  *store.Store

	MetricsEnabled bool
	HealthEnabled  bool
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	cfg    config.ServerConfig
	opts   Options
}

// New creates a new HTTP server instance
func New(cfg config.ServerConfig, opts Options) *Server {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)

	// Custom middleware in correct order (RequestID → Metrics → Recovery)
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestMetrics)
	r.Use(servermw.Recovery)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewNotFoundError("The requested resource was not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource"))
	})

	s := &Server{
		router: r,
		cfg:    cfg,
		opts:   opts,
	}

	// Ensure handlers use the centralized error responder
	handlers.SetHTTPErrorResponder(HandleError)
	handlers.SetCheckEngine(opts.Engine)
	if opts.Store != nil {
		handlers.SetPlatformLister(opts.Store)
		handlers.SetCheckHistory(opts.Store)
		if hm := handlers.GetHealthManager(); hm != nil {
			hm.RegisterChecker("store", opts.Store)
		}
	}

	s.registerRoutes()

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  orDuration(s.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout: orDuration(s.cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:  orDuration(s.cfg.IdleTimeout, 60*time.Second),
	}

	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("Starting HTTP server",
			zap.String("host", s.cfg.Host),
			zap.Int("port", s.cfg.Port),
			zap.String("addr", addr))
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("Shutting down HTTP server")
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation
func (s *Server) Handler() http.Handler {
	return s.router
}

func orDuration(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}
