// Package server exposes the ingestion pipeline and display state over
// HTTP for the dashboard frontend.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"repotrack/internal/pipeline"
	"repotrack/internal/pubsub"
	"repotrack/internal/state"
)

// Server serves the dashboard API.
type Server struct {
	pipeline *pipeline.Pipeline
	cache    *state.Cache
	broker   *pubsub.Broker[pipeline.Event]
	logger   *slog.Logger
	version  string

	httpServer *http.Server
}

// Options configures a Server. Broker may be nil, in which case the
// events endpoint serves an empty stream.
type Options struct {
	Pipeline *pipeline.Pipeline
	Cache    *state.Cache
	Broker   *pubsub.Broker[pipeline.Event]
	Logger   *slog.Logger
	Version  string
}

// New creates a Server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{
		pipeline: opts.Pipeline,
		cache:    opts.Cache,
		broker:   opts.Broker,
		logger:   opts.Logger,
		version:  opts.Version,
	}
}

// Handler builds the route table. Exposed separately from Start so tests
// can drive the API through httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/events", s.handleEvents)

	r.Post("/api/projects", s.handleIngest)
	r.Get("/api/projects", s.handleListProjects)
	r.Get("/api/projects/{owner}/{name}", s.handleGetProject)
	r.Post("/api/search", s.handleSearch)

	return r
}

// Start begins serving on addr and blocks until the listener fails or the
// server is shut down.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("http server listening", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
