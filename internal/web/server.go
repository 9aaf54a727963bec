// Package web exposes the trials importer over HTTP.
//
// The host system raises a "CSV loaded" event by posting the parsed rows (or
// the raw CSV) to /api/events/csv-loaded. /api/plan runs the same pipeline
// without writing, and /healthz checks the database.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/trialsdata/internal/config"
	"github.com/JonMunkholm/trialsdata/internal/trials"
	"github.com/JonMunkholm/trialsdata/internal/web/middleware"
)

// Importer runs and previews imports. *trials.Importer satisfies it.
type Importer interface {
	HandleCSVLoaded(ctx context.Context, rows []trials.RawRow, filename string) (*trials.Result, error)
	Plan(ctx context.Context, rows []trials.RawRow, filename string) (*trials.PlanResult, error)
}

// Pinger reports database reachability. *trials.Store satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP server for import events.
type Server struct {
	importer Importer
	db       Pinger
	limiter  *trials.RunLimiter
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
}

// NewServer wires routes and middleware. limiter may be nil; it is only
// read for health output.
func NewServer(importer Importer, db Pinger, limiter *trials.RunLimiter, cfg *config.Config) *Server {
	s := &Server{
		importer: importer,
		db:       db,
		limiter:  limiter,
		cfg:      cfg,
		router:   chi.NewRouter(),
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
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/events/csv-loaded", s.handleCSVLoaded)
		r.Post("/plan", s.handlePlan)
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds the headers that matter for a JSON-only API.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v with the given status.
// Encoding errors are logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
