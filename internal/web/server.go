// Package web provides the HTTP API of the validation service.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MobilityData/gtfs-validator-sub012/internal/config"
	"github.com/MobilityData/gtfs-validator-sub012/internal/core"
	"github.com/MobilityData/gtfs-validator-sub012/internal/metrics"
	"github.com/MobilityData/gtfs-validator-sub012/internal/web/middleware"
)

// Server is the HTTP server of the validation service.
type Server struct {
	service  *core.Service
	cfg      *config.Config
	gatherer prometheus.Gatherer
	router   *chi.Mux
	server   *http.Server
	limiter  *middleware.RateLimiter
	done     chan struct{}
}

// NewServer creates a server. A nil gatherer disables /metrics.
func NewServer(service *core.Service, cfg *config.Config, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		service:  service,
		cfg:      cfg,
		gatherer: gatherer,
		router:   chi.NewRouter(),
		done:     make(chan struct{}),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(securityHeaders)

	if s.cfg.Server.RateLimit > 0 {
		s.limiter = middleware.NewRateLimiter(s.cfg.Server.RateLimit)
		s.router.Use(s.limiter.Middleware)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	if s.gatherer != nil {
		s.router.Handle("/metrics", metrics.Handler(s.gatherer))
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security))
		r.Use(chimw.Compress(5))

		r.Post("/validate", s.handleValidate)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{runID}", s.handleGetRun)
		r.Get("/tables", s.handleListTables)
		r.Get("/tables/{filename}", s.handleGetTable)
		r.Get("/validators", s.handleListValidators)
		r.Get("/status", s.handleStatus)
	})
}

// Start listens on the configured address until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	if s.limiter != nil {
		go s.sweepVisitors()
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) sweepVisitors() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.limiter.Sweep(now)
		}
	}
}

// Shutdown stops accepting requests and waits for in-flight validations.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	close(s.done)
	err := s.server.Shutdown(ctx)
	if drainErr := s.service.Shutdown(ctx); err == nil {
		err = drainErr
	}
	return err
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v with the given status. Encoding errors are logged
// since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
