// Package api exposes the product catalog over REST.
package api

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/minhle/prodcat/internal/catalog"
	"github.com/minhle/prodcat/internal/metrics"
)

// HealthChecker is the slice of the database layer the health endpoint needs.
type HealthChecker interface {
	Ping(ctx context.Context) error
	Database() string
}

// Server holds the handler dependencies.
type Server struct {
	repo      catalog.Repository
	health    HealthChecker
	collector *metrics.Collector
	logger    *slog.Logger
	validate  *validator.Validate
	origins   []string
}

// NewServer creates a server. health may be nil when no database backs the
// repository; the health endpoint then reports the process alone.
func NewServer(repo catalog.Repository, health HealthChecker, collector *metrics.Collector, origins []string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &Server{
		repo:      repo,
		health:    health,
		collector: collector,
		logger:    logger,
		validate:  validator.New(),
		origins:   origins,
	}
}

// Router assembles the chi router with CORS, timing middleware, and routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(s.timingMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/api/stats", s.handleStats)

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", s.handleGetAll)
		r.Post("/", s.handleCreate)
		r.Post("/batch", s.handleBatchCreate)
		r.Get("/{id}", s.handleGet)
		r.Put("/{id}", s.handleUpdate)
		r.Delete("/{id}", s.handleDelete)
	})

	return r
}
