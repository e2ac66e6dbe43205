// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vivat7on/filmindex/internal/platform/constants"
	"github.com/vivat7on/filmindex/internal/platform/middleware"
)

// Server wraps the chi router and the [http.Server] for the control-plane
// API. Unlike the read-side query API this engine feeds, it has exactly
// three routes and no domain handler registry to speak of.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// Dependencies groups everything [NewServer] needs from the rest of the
// engine.
type Dependencies struct {
	Port           string
	Health         HealthDependencies
	Scheduler      Resyncer
	AdminTokenHash string // empty disables /admin/resync entirely.
}

// NewServer builds the control-plane router and its middleware chain.
func NewServer(ctx context.Context, deps Dependencies, logger *slog.Logger) *Server {
	liveness, readiness := NewHealthHandlers(deps.Health, logger)

	router := chi.NewRouter()
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(logger))
	router.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	router.Use(middleware.RateLimit(ctx))
	router.Use(middleware.PanicRecovery(logger))
	router.Use(chimw.CleanPath)

	router.Get("/health", liveness)
	router.Get("/ready", readiness)

	if deps.AdminTokenHash != "" {
		router.Route("/admin", func(r chi.Router) {
			r.Use(middleware.BearerAuth(deps.AdminTokenHash))
			r.Post("/resync", NewResyncHandler(deps.Scheduler, logger))
		})
	} else {
		logger.Warn("admin_resync_disabled", slog.String("reason", "ADMIN_TOKEN_HASH unset"))
	}

	return &Server{
		logger: logger,
		httpServer: &http.Server{
			Addr:              ":" + deps.Port,
			Handler:           router,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// ListenAndServe starts the HTTP server. It blocks until the server is
// closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.logger.Info("admin_server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting up to timeout for
// in-flight requests to finish.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
