// Package server exposes the listings API over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pario-ai/listings/pkg/cache"
	"github.com/pario-ai/listings/pkg/config"
	"github.com/pario-ai/listings/pkg/logging"
	"github.com/pario-ai/listings/pkg/metrics"
	"github.com/pario-ai/listings/pkg/repository"
	"github.com/pario-ai/listings/pkg/respcache"
)

// Deps are the collaborators a Server needs. Collector may be nil.
type Deps struct {
	Repo      repository.Repository
	Cache     *cache.PropertyCache
	Reporter  *metrics.Reporter
	Collector *metrics.Collector
	Responses *respcache.Cache
	Logger    *zap.Logger
}

// Server is the listings HTTP API.
type Server struct {
	cfg    *config.Config
	deps   Deps
	log    *zap.Logger
	router chi.Router
}

// New creates a Server wired with all dependencies.
func New(cfg *config.Config, d Deps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: d,
		log:  logging.OrNop(d.Logger),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(accessLog(s.log, s.deps.Collector))
	if s.cfg.RateLimit.Enabled {
		r.Use(rateLimit(rate.NewLimiter(rate.Limit(s.cfg.RateLimit.RPS), s.cfg.RateLimit.Burst)))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, "Not found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics/cache", s.handleCacheMetrics)
	if s.deps.Collector != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Collector.Handler())
	}

	r.Route("/properties", func(r chi.Router) {
		list := http.Handler(http.HandlerFunc(s.handleListProperties))
		if s.deps.Responses != nil {
			list = s.deps.Responses.Middleware(list)
		}
		r.Method(http.MethodGet, "/", list)
		r.Post("/", s.handleCreateProperty)
		r.Get("/{id}", s.handleGetProperty)
		r.Put("/{id}", s.handleUpdateProperty)
		r.Delete("/{id}", s.handleDeleteProperty)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe starts the server and shuts it down gracefully when ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listings api listening", zap.String("addr", s.cfg.Listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}
