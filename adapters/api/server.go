// Package api exposes the ranking service over HTTP
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lineupremote/app"
	apperrors "lineupremote/internal/errors"
	"lineupremote/internal/logger"
)

const maxBodyBytes = 10 << 20

// Server routes client requests to the ranking service
type Server struct {
	router  *chi.Mux
	service *app.LineupService
	metrics bool
}

// Config holds HTTP server settings
type Config struct {
	Port string
}

// NewServer creates the router with every endpoint registered
func NewServer(service *app.LineupService, metricsEnabled bool) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		service: service,
		metrics: metricsEnabled,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, apperrors.NotFound("route "+r.URL.Path))
	})

	s.router.Get("/healthz", s.handleHealth)
	if s.metrics {
		s.router.Handle("/metrics", promhttp.Handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/desc", s.handleDesc)
		r.Get("/count", s.handleCount)

		r.Get("/row/", s.handleRows)
		r.Post("/row/", s.handleRowsByBody)
		r.Get("/row/{id}", s.handleRow)

		r.Post("/ranking/sort", s.handleSort)
		r.Post("/stats", s.handleStats)
		r.Post("/ranking/stats", s.handleRankingStats)
		r.Post("/ranking/group/{group}/stats", s.handleGroupStats)

		r.Post("/column/{column}/mappingSample", s.handleMappingSample)
		r.Get("/column/{column}/search", s.handleSearch)
	})
}

// Start serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Start(ctx context.Context, cfg Config) error {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Ctx(ctx).Info().Str("addr", srv.Addr).Msg("starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logger.Ctx(ctx).Info().Msg("shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.DefaultLogger.Error().Err(err).Msg("failed to encode response")
	}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.FromDomain(err)
	status := apperrors.HTTPStatus(appErr.Code)

	event := logger.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Ctx(r.Context()).Error()
	}
	event.Err(err).Str("code", appErr.Code).Msg("request failed")

	writeJSON(w, status, errorBody{Error: errorDetail{Code: appErr.Code, Message: appErr.Message}})
}
