// Package api provides the Rhymer REST and websocket labeling server.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FocuswithJustin/Rhymer/core/cache"
	"github.com/FocuswithJustin/Rhymer/core/oracle"
	"github.com/FocuswithJustin/Rhymer/core/rhyme"
	"github.com/FocuswithJustin/Rhymer/internal/logging"
	"github.com/FocuswithJustin/Rhymer/internal/store"
)

// Server serves labeling requests against one shared oracle.
type Server struct {
	cfg      Config
	oracle   *oracle.Oracle
	engine   *rhyme.Engine
	store    *store.Store // nil disables the poem endpoints and job persistence
	memo     *cache.LabelCache
	jobs     *JobStore
	registry *prometheus.Registry
	metrics  *metrics
}

// New creates a server. reg receives the API metrics and is served on
// /metrics; a nil reg uses a fresh registry. st may be nil.
func New(cfg Config, o *oracle.Oracle, st *store.Store, reg *prometheus.Registry) (*Server, error) {
	if err := cfg.DefaultMode.Validate(); err != nil {
		return nil, fmt.Errorf("invalid default mode: %w", err)
	}
	if err := ValidateAuthConfig(cfg.Auth); err != nil {
		return nil, fmt.Errorf("invalid auth config: %w", err)
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Server{
		cfg:      cfg,
		oracle:   o,
		engine:   rhyme.NewEngine(o),
		store:    st,
		memo:     cache.NewDefaultLabelCache(),
		jobs:     NewJobStore(cfg.JobRetention, cfg.MaxFinishedJobs),
		registry: reg,
		metrics:  newMetrics(reg),
	}, nil
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = SecurityHeadersMiddleware(s.routes())

	if s.cfg.Auth.Enabled {
		handler = AuthMiddleware(s.cfg.Auth, handler)
	}
	if s.cfg.RateLimitRequests > 0 {
		limiter := NewRateLimiter(RateLimiterConfig{
			RequestsPerMinute: s.cfg.RateLimitRequests,
			BurstSize:         s.cfg.RateLimitBurst,
		})
		handler = limiter.Middleware(handler)
	}
	handler = CORSMiddleware(s.cfg.AllowedOrigins, handler)
	return logging.CombinedMiddleware(handler)
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("POST /v1/label", s.handleLabel)
	mux.HandleFunc("GET /v1/label/stream", s.handleLabelStream)
	mux.HandleFunc("GET /v1/oracle/{word}", s.handleOracle)
	mux.HandleFunc("POST /v1/jobs", s.handleCreateJob)
	mux.HandleFunc("GET /v1/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("DELETE /v1/jobs/{id}", s.handleCancelJob)
	if s.store != nil {
		mux.HandleFunc("GET /v1/poems", s.handlePoems)
		mux.HandleFunc("GET /v1/poems/{id}", s.handlePoemByID)
	}

	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.ServerStartup("rest_api", "http", s.cfg.Port,
		"default_mode", s.cfg.DefaultMode.String(),
		"auth", s.cfg.Auth.Enabled,
		"rate_limit", s.cfg.RateLimitRequests,
		"store", s.store != nil,
	)
	if len(s.cfg.AllowedOrigins) == 0 {
		logging.Warn("CORS allows all origins", "recommendation", "set allowed origins for production")
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logging.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
