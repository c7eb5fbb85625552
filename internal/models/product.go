// Package models defines the product entity and its lifecycle states.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProductStatus represents where a product sits in the enrichment pipeline.
type ProductStatus string

const (
	StatusPending    ProductStatus = "pending"
	StatusProcessing ProductStatus = "processing"
	StatusCompleted  ProductStatus = "completed"
	StatusError      ProductStatus = "error"
)

// Valid reports whether s is one of the known statuses.
func (s ProductStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Product sources.
const (
	SourceManual = "manual"
	SourceExcel  = "excel"
)

// TempIDPrefix marks client-local ids assigned before the store confirms a create.
const TempIDPrefix = "temp-"

// Product is the central entity. The id is immutable once assigned by the
// durable store; a temp- prefixed id may precede it on the client.
type Product struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Status       ProductStatus `json:"status"`
	Source       string        `json:"source"`
	ErrorMessage string        `json:"error_message,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// IsTemp reports whether the product still carries a client-local id.
func (p Product) IsTemp() bool {
	return strings.HasPrefix(p.ID, TempIDPrefix)
}

// Eligible reports whether the product is a candidate for a processing run.
// Error items stay eligible so a later run can retry them.
func (p Product) Eligible() bool {
	return p.Status == StatusPending || p.Status == StatusError
}

// TempID returns a fresh client-local identifier.
func TempID() string {
	return TempIDPrefix + uuid.New().String()[:8]
}

// NewTemp builds an optimistic product awaiting store confirmation.
func NewTemp(name, source string) Product {
	now := time.Now()
	return Product{
		ID:        TempID(),
		Name:      strings.TrimSpace(name),
		Status:    StatusPending,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ProductUpdate is a partial patch; nil fields are left untouched.
// Setting Description implies StatusCompleted unless Status is set explicitly.
type ProductUpdate struct {
	Name         *string        `json:"name,omitempty"`
	Description  *string        `json:"description,omitempty"`
	Status       *ProductStatus `json:"status,omitempty"`
	ErrorMessage *string        `json:"error_message,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (u ProductUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Status == nil && u.ErrorMessage == nil
}

// ValidName reports whether a raw product name survives trimming.
func ValidName(name string) bool {
	return strings.TrimSpace(name) != ""
}

// ValidNames filters invalid entries and returns the trimmed survivors,
// preserving input order. Empty input yields an empty slice.
func ValidNames(names []string) []string {
	valid := make([]string, 0, len(names))
	for _, name := range names {
		if ValidName(name) {
			valid = append(valid, strings.TrimSpace(name))
		}
	}
	return valid
}
