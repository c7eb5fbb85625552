// Package db provides the Postgres-backed product repository.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/minhle/prodcat/internal/metrics"
)

// Config holds Postgres connection configuration.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Store wraps a Postgres connection pool and implements catalog.Repository.
type Store struct {
	db        *sql.DB
	cfg       Config
	logger    *slog.Logger
	collector *metrics.Collector
}

// NewStore opens a connection pool and verifies it with a ping.
func NewStore(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	logger.Info("connected to postgres", "host", cfg.Host, "database", cfg.Name)
	return &Store{db: db, cfg: cfg, logger: logger}, nil
}

// SetCollector enables query timing collection.
func (s *Store) SetCollector(c *metrics.Collector) {
	s.collector = c
}

// observe records one query timing; used as `defer s.observe(time.Now())`.
func (s *Store) observe(start time.Time) {
	if s.collector != nil {
		s.collector.RecordTiming(metrics.OpDBQuery, time.Since(start))
	}
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Database returns the configured database name, for the health endpoint.
func (s *Store) Database() string {
	return s.cfg.Name
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}

// InitSchema creates the products table if it does not exist.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	s.logger.Info("schema initialization complete")
	return nil
}
