// Package server exposes the robot dashboard over HTTP: telemetry, robot
// mode and the autonomous chooser.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/me/cmdbot/internal/logging"
	"github.com/me/cmdbot/internal/telemetry"
	"github.com/me/cmdbot/pkg/model"
)

// Controller is the part of the robot the dashboard may touch. Every
// method must be safe to call from HTTP handler goroutines.
type Controller interface {
	Status() model.RobotStatus
	RequestMode(m model.Mode) error
	Autos() []model.AutoOption
	SelectAuto(key string) error
}

// Server is the dashboard REST API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	startTime time.Time
	table     *telemetry.Table
	robot     Controller
	secret    []byte
}

// Option configures a Server.
type Option func(*Server)

// WithTokenSecret requires an HS256 bearer token signed with secret on
// every request that changes robot state.
func WithTokenSecret(secret string) Option {
	return func(s *Server) {
		if secret != "" {
			s.secret = []byte(secret)
		}
	}
}

// New creates a new Server with all routes registered.
func New(table *telemetry.Table, robot Controller, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logging.Component(logger, "server"),
		startTime: time.Now(),
		table:     table,
		robot:     robot,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("dashboard: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dashboard shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.handleDiscovery)
		r.Get("/health", s.handleHealth)

		r.Route("/telemetry", func(r chi.Router) {
			r.Get("/", s.handleListTelemetry)
			r.Get("/*", s.handleGetTelemetry)
		})

		r.Route("/robot", func(r chi.Router) {
			r.Get("/", s.handleGetRobot)
			r.With(s.requireToken).Put("/mode", s.handleSetMode)
		})

		r.Route("/autos", func(r chi.Router) {
			r.Get("/", s.handleListAutos)
			r.With(s.requireToken).Put("/selected", s.handleSelectAuto)
		})
	})
}
