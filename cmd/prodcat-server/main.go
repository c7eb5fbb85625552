// Package main provides the REST server for the product catalog.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minhle/prodcat/internal/api"
	"github.com/minhle/prodcat/internal/cache"
	"github.com/minhle/prodcat/internal/catalog"
	"github.com/minhle/prodcat/internal/config"
	"github.com/minhle/prodcat/internal/db"
	"github.com/minhle/prodcat/internal/metrics"
)

func main() {
	cfg := config.Load()

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()
	slog.SetDefault(logger)

	slog.Info("starting prodcat-server", "port", cfg.Port)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := db.NewStore(ctx, db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}, logger)
	if err != nil {
		cancel()
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := store.InitSchema(ctx); err != nil {
		cancel()
		slog.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}
	cancel()
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	// The Redis list cache is optional; a missing or unreachable Redis just
	// means uncached reads.
	var repo catalog.Repository = store
	if cfg.RedisAddr != "" {
		cached, err := cache.New(cfg.RedisAddr, store, logger)
		if err != nil {
			slog.Warn("redis unavailable, running uncached", "addr", cfg.RedisAddr, "error", err)
		} else {
			repo = cached
			defer cached.Close()
		}
	}

	collector := metrics.NewCollector()
	store.SetCollector(collector)
	server := api.NewServer(repo, store, collector, cfg.AllowedOrigins(), logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("REST API available", "url", "http://localhost:"+cfg.Port+"/api/products")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
