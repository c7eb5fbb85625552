// Package cache provides an optional Redis cache for the product listing.
// The cache is a read accelerator only: every failure degrades to the
// underlying repository with a WARN, never an error to the caller.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/minhle/prodcat/internal/catalog"
	"github.com/minhle/prodcat/internal/models"
)

const (
	listKey = "prodcat:products"
	listTTL = 60 * time.Second
)

// Cache wraps a Repository with a Redis-backed product list cache.
// Mutations invalidate the list and pass through.
type Cache struct {
	repo   catalog.Repository
	client *redis.Client
	logger *slog.Logger
}

var _ catalog.Repository = (*Cache)(nil)

// New connects to Redis at addr and wraps repo. A failed ping returns the
// error so the caller can decide to run uncached.
func New(addr string, repo catalog.Repository, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	logger.Info("connected to redis", "addr", addr)

	return &Cache{repo: repo, client: client, logger: logger}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, listKey).Err(); err != nil {
		c.logger.Warn("cache invalidation failed", "error", err)
	}
}

// GetAll serves the listing from Redis when present, falling back to the
// repository and repopulating on miss.
func (c *Cache) GetAll(ctx context.Context) ([]models.Product, error) {
	raw, err := c.client.Get(ctx, listKey).Bytes()
	if err == nil {
		var products []models.Product
		if err := json.Unmarshal(raw, &products); err == nil {
			return products, nil
		}
		c.logger.Warn("corrupt cache entry, refetching", "key", listKey)
	} else if err != redis.Nil {
		c.logger.Warn("cache read failed", "error", err)
	}

	products, err := c.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(products); err == nil {
		if err := c.client.Set(ctx, listKey, raw, listTTL).Err(); err != nil {
			c.logger.Warn("cache write failed", "error", err)
		}
	}
	return products, nil
}

func (c *Cache) Get(ctx context.Context, id string) (models.Product, error) {
	return c.repo.Get(ctx, id)
}

func (c *Cache) Create(ctx context.Context, name, source string) (models.Product, error) {
	p, err := c.repo.Create(ctx, name, source)
	if err == nil {
		c.invalidate(ctx)
	}
	return p, err
}

func (c *Cache) BatchCreate(ctx context.Context, names []string, source string) ([]models.Product, error) {
	products, err := c.repo.BatchCreate(ctx, names, source)
	if err == nil {
		c.invalidate(ctx)
	}
	return products, err
}

func (c *Cache) Update(ctx context.Context, id string, upd models.ProductUpdate) (models.Product, error) {
	p, err := c.repo.Update(ctx, id, upd)
	if err == nil {
		c.invalidate(ctx)
	}
	return p, err
}

func (c *Cache) UpdateStatus(ctx context.Context, id string, status models.ProductStatus) (models.Product, error) {
	p, err := c.repo.UpdateStatus(ctx, id, status)
	if err == nil {
		c.invalidate(ctx)
	}
	return p, err
}

func (c *Cache) UpdateDescription(ctx context.Context, id, description string) (models.Product, error) {
	p, err := c.repo.UpdateDescription(ctx, id, description)
	if err == nil {
		c.invalidate(ctx)
	}
	return p, err
}

func (c *Cache) Delete(ctx context.Context, id string) error {
	err := c.repo.Delete(ctx, id)
	if err == nil {
		c.invalidate(ctx)
	}
	return err
}
