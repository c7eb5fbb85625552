// Package store provides a Badger-backed product repository for running
// without a backend server. The whole catalog lives under one key prefix;
// every logical operation is a single transaction.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/minhle/prodcat/internal/catalog"
	"github.com/minhle/prodcat/internal/models"
)

const productKeyPrefix = "product:"

// Store implements catalog.Repository on top of BadgerDB.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a Badger store at path. An empty path opens an
// in-memory store, used by tests.
func Open(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	if logger != nil {
		logger.Info("opened local store", "path", path, "in_memory", path == "")
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func key(id string) []byte {
	return []byte(productKeyPrefix + id)
}

func getProduct(txn *badger.Txn, id string) (models.Product, error) {
	item, err := txn.Get(key(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.Product{}, catalog.ErrNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("get product: %w", err)
	}

	var p models.Product
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &p)
	})
	if err != nil {
		return models.Product{}, fmt.Errorf("decode product: %w", err)
	}
	return p, nil
}

func setProduct(txn *badger.Txn, p models.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode product: %w", err)
	}
	if err := txn.Set(key(p.ID), data); err != nil {
		return fmt.Errorf("set product: %w", err)
	}
	return nil
}

// GetAll returns every product, newest first.
func (s *Store) GetAll(ctx context.Context) ([]models.Product, error) {
	products := make([]models.Product, 0)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(productKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var p models.Product
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			})
			if err != nil {
				return fmt.Errorf("decode product: %w", err)
			}
			products = append(products, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

// Get returns a single product by id.
func (s *Store) Get(ctx context.Context, id string) (models.Product, error) {
	var p models.Product
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		p, err = getProduct(txn, id)
		return err
	})
	return p, err
}

// Create stores a new pending product with a store-assigned id.
func (s *Store) Create(ctx context.Context, name, source string) (models.Product, error) {
	if !models.ValidName(name) {
		return models.Product{}, catalog.ErrInvalidName
	}
	if source == "" {
		source = models.SourceManual
	}

	now := time.Now()
	p := models.Product{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		Status:    models.StatusPending,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return setProduct(txn, p)
	})
	if err != nil {
		return models.Product{}, err
	}
	return p, nil
}

// BatchCreate writes all valid names in one transaction.
func (s *Store) BatchCreate(ctx context.Context, names []string, source string) ([]models.Product, error) {
	valid := models.ValidNames(names)
	if len(valid) == 0 {
		return []models.Product{}, nil
	}
	if source == "" {
		source = models.SourceManual
	}

	now := time.Now()
	products := make([]models.Product, len(valid))
	for i, name := range valid {
		// Nudge created_at so newest-first ordering stays stable within
		// the batch.
		created := now.Add(time.Duration(i) * time.Microsecond)
		products[i] = models.Product{
			ID:        uuid.New().String(),
			Name:      name,
			Status:    models.StatusPending,
			Source:    source,
			CreatedAt: created,
			UpdatedAt: created,
		}
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		for _, p := range products {
			if err := setProduct(txn, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Update applies a partial patch. Setting a description without an explicit
// status forces completed.
func (s *Store) Update(ctx context.Context, id string, upd models.ProductUpdate) (models.Product, error) {
	if upd.Description != nil && upd.Status == nil {
		completed := models.StatusCompleted
		upd.Status = &completed
	}

	var updated models.Product
	err := s.db.Update(func(txn *badger.Txn) error {
		p, err := getProduct(txn, id)
		if err != nil {
			return err
		}

		if upd.Name != nil {
			p.Name = *upd.Name
		}
		if upd.Description != nil {
			p.Description = *upd.Description
		}
		if upd.Status != nil {
			p.Status = *upd.Status
		}
		if upd.ErrorMessage != nil {
			p.ErrorMessage = *upd.ErrorMessage
		}
		p.UpdatedAt = time.Now()

		updated = p
		return setProduct(txn, p)
	})
	if err != nil {
		return models.Product{}, err
	}
	return updated, nil
}

// UpdateStatus sets only the status.
func (s *Store) UpdateStatus(ctx context.Context, id string, status models.ProductStatus) (models.Product, error) {
	return s.Update(ctx, id, models.ProductUpdate{Status: &status})
}

// UpdateDescription sets the description, which completes the product.
func (s *Store) UpdateDescription(ctx context.Context, id, description string) (models.Product, error) {
	return s.Update(ctx, id, models.ProductUpdate{Description: &description})
}

// Delete removes a product, failing with ErrNotFound when absent.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := getProduct(txn, id); err != nil {
			return err
		}
		if err := txn.Delete(key(id)); err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		return nil
	})
}
