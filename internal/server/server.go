// Package server provides the HTTP server and routing for fintrack.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/database"
	"github.com/aristath/fintrack/internal/refresh"
	"github.com/aristath/fintrack/internal/scheduler"
)

// RouteRegistrar mounts a module's routes under /api.
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// RefreshRunner runs a refresh kind.
type RefreshRunner interface {
	Run(ctx context.Context, kind refresh.Kind) (refresh.RunReport, error)
	Kinds() []refresh.Kind
}

// RunHistory lists stored run reports.
type RunHistory interface {
	Recent(ctx context.Context, limit int) ([]refresh.RunReport, error)
	RecentByKind(ctx context.Context, kind refresh.Kind, limit int) ([]refresh.RunReport, error)
}

// JobLister reports scheduled jobs.
type JobLister interface {
	Jobs() []scheduler.JobInfo
}

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Port      int
	DevMode   bool
	DB        *database.DB
	Refresh   RefreshRunner
	History   RunHistory
	Jobs      JobLister
	Metrics   http.Handler
	Providers []string
	Modules   []RouteRegistrar
}

// Server represents the HTTP server
type Server struct {
	router  *chi.Mux
	server  *http.Server
	log     zerolog.Logger
	port    int
	modules []RouteRegistrar
	metrics http.Handler

	systemHandlers  *SystemHandlers
	refreshHandlers *RefreshHandlers

	// background runs started by async refresh triggers
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	log := cfg.Log.With().Str("component", "server").Logger()

	s := &Server{
		router:          chi.NewRouter(),
		log:             log,
		port:            cfg.Port,
		modules:         cfg.Modules,
		metrics:         cfg.Metrics,
		systemHandlers:  NewSystemHandlers(cfg.DB, cfg.Providers, cfg.Jobs, cfg.Log),
		refreshHandlers: NewRefreshHandlers(ctx, cfg.Refresh, cfg.History, cfg.Log),
		ctx:             ctx,
		cancel:          cancel,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Minute, // ?wait=true refreshes hold the connection
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/database/stats", s.systemHandlers.HandleDatabaseStats)
			r.Get("/jobs", s.systemHandlers.HandleJobs)
		})

		s.refreshHandlers.RegisterRoutes(r)

		for _, m := range s.modules {
			m.RegisterRoutes(r)
		}
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, cancels async refreshes and waits for
// in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	s.cancel()
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
