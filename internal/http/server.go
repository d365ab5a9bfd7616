// Package http serves the status and now playing API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"radiometa/internal/core"
	"radiometa/internal/i18n"
	"radiometa/internal/present"
	"radiometa/internal/store"
)

const shutdownTimeout = 10 * time.Second

// NowPlaying exposes the rendered now playing board.
type NowPlaying interface {
	Snapshot() present.Snapshot
}

// PlayHistory exposes recently played tracks, newest first.
type PlayHistory interface {
	Recent(limit int) []store.Play
}

// Refresher triggers an out of schedule poll.
type Refresher interface {
	RefreshNow() bool
	Ready() bool
}

// RateLimiter decides whether a client may trigger another refresh.
type RateLimiter interface {
	Allow(client string) bool
}

// Dependencies are the components the routes read from. Any of them may be
// nil; the matching endpoints then answer with an empty or default result.
type Dependencies struct {
	NowPlaying NowPlaying
	History    PlayHistory
	Poller     Refresher
	Limiter    RateLimiter
	Metrics    *Metrics
	Gatherer   prometheus.Gatherer
	Localizer  *i18n.Localizer
}

type Server struct {
	config *core.ServerConfig
	logger *zap.Logger
	server *http.Server
}

// NewServer builds the router and the underlying http.Server.
func NewServer(config *core.ServerConfig, deps Dependencies, logger *zap.Logger) *Server {
	return &Server{
		config: config,
		logger: logger,
		server: createHTTPServer(config, setupRoutes(deps, logger)),
	}
}

func createHTTPServer(config *core.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
}

func setupRoutes(deps Dependencies, logger *zap.Logger) chi.Router {
	if deps.Localizer == nil {
		deps.Localizer = i18n.NewLocalizer(i18n.DefaultLanguage)
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	h := &handlers{deps: deps, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthzHandler)
	r.Get("/readyz", h.readyz)
	r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/nowplaying", h.nowPlaying)
		r.Get("/history", h.history)
		r.Post("/refresh", h.refresh)
	})

	r.Get("/", homeHandler(deps, logger))

	return r
}

// Handler returns the routed handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				logger.Debug("HTTP request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("requestID", middleware.GetReqID(r.Context())),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
