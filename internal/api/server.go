// Package api is the administrative HTTP surface: health, sync status and
// trigger, cached analytics and posting queries.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/amishk599/jobatlas/internal/analytics"
	"github.com/amishk599/jobatlas/internal/filter"
	"github.com/amishk599/jobatlas/internal/model"
	"github.com/amishk599/jobatlas/internal/ratelimit"
)

// Store is the read side of the posting cache.
type Store interface {
	GetSyncMetadata(ctx context.Context) (model.SyncMetadata, error)
	QueryPostings(ctx context.Context, q filter.Query) ([]model.ClassifiedPosting, int, error)
	GetPosting(ctx context.Context, id int64) (model.ClassifiedPosting, error)
}

// AnalyticsReader serves cached aggregates.
type AnalyticsReader interface {
	Get(ctx context.Context, key string) (analytics.Cached, error)
	GetCached(ctx context.Context, key string) (analytics.Cached, error)
}

// Syncer runs one full sync.
type Syncer interface {
	FullSync(ctx context.Context) model.SyncReport
}

// Config holds server dependencies.
type Config struct {
	Addr      string
	Store     Store
	Analytics AnalyticsReader
	Syncer    Syncer
	Cooldown  *ratelimit.Cooldown // nil disables throttling of POST /api/sync
	// BaseContext bounds syncs started in the background. Defaults to
	// context.Background().
	BaseContext context.Context
	Logger      *slog.Logger
}

// Server represents the HTTP server.
type Server struct {
	router    *chi.Mux
	server    *http.Server
	store     Store
	analytics AnalyticsReader
	syncer    Syncer
	cooldown  *ratelimit.Cooldown
	baseCtx   context.Context
	logger    *slog.Logger
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	if cfg.Cooldown == nil {
		cfg.Cooldown = ratelimit.NewCooldown(0)
	}
	if cfg.BaseContext == nil {
		cfg.BaseContext = context.Background()
	}
	s := &Server{
		router:    chi.NewRouter(),
		store:     cfg.Store,
		analytics: cfg.Analytics,
		syncer:    cfg.Syncer,
		cooldown:  cfg.Cooldown,
		baseCtx:   cfg.BaseContext,
		logger:    cfg.Logger.With("component", "api"),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/sync/status", s.handleSyncStatus)
		r.Post("/sync", s.handleTriggerSync)
		r.Get("/analytics/{key}", s.handleAnalytics)
		r.Get("/postings", s.handleListPostings)
		r.Get("/postings/{id}", s.handleGetPosting)
	})
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called. It returns http.ErrServerClosed
// after a graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
