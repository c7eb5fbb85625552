// Package catalog holds the product session state and the batch enrichment
// engine, plus the repository contract both are written against.
package catalog

import (
	"context"
	"errors"

	"github.com/minhle/prodcat/internal/models"
)

// Sentinel errors shared by every repository implementation.
// Use errors.Is() to check for these in calling code.
var (
	// ErrNotFound indicates the requested product does not exist.
	ErrNotFound = errors.New("product not found")

	// ErrInvalidName indicates a create was attempted with an empty name.
	ErrInvalidName = errors.New("invalid product name")

	// ErrUnavailable indicates the backing store could not be reached.
	ErrUnavailable = errors.New("store unavailable")
)

// Repository abstracts product persistence. Three implementations conform:
// the Postgres store (server side), the Badger store (local fallback), and
// the REST client. The engine and session are backend-agnostic.
type Repository interface {
	// GetAll returns the full collection, newest first. All-or-nothing.
	GetAll(ctx context.Context) ([]models.Product, error)

	// Get returns a single product or ErrNotFound.
	Get(ctx context.Context, id string) (models.Product, error)

	// Create stores a new pending product; the store assigns id and
	// timestamps. Fails with ErrInvalidName for blank names.
	Create(ctx context.Context, name, source string) (models.Product, error)

	// BatchCreate filters invalid names first and creates the remainder in
	// one logical operation. An empty remainder returns an empty slice, not
	// an error.
	BatchCreate(ctx context.Context, names []string, source string) ([]models.Product, error)

	// Update applies a partial patch. Setting a description forces status
	// completed unless the patch sets a status explicitly.
	Update(ctx context.Context, id string, upd models.ProductUpdate) (models.Product, error)

	// UpdateStatus and UpdateDescription are convenience wrappers over Update.
	UpdateStatus(ctx context.Context, id string, status models.ProductStatus) (models.Product, error)
	UpdateDescription(ctx context.Context, id, description string) (models.Product, error)

	// Delete removes a product, failing with ErrNotFound when absent.
	Delete(ctx context.Context, id string) error
}
