package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minhle/prodcat/internal/catalog"
	"github.com/minhle/prodcat/internal/models"
)

const productColumns = "id, name, description, status, source, error_message, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (models.Product, error) {
	var p models.Product
	var errMsg sql.NullString
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Status, &p.Source,
		&errMsg, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.Product{}, err
	}
	p.ErrorMessage = errMsg.String
	return p, nil
}

// GetAll returns every product, newest first.
func (s *Store) GetAll(ctx context.Context) ([]models.Product, error) {
	defer s.observe(time.Now())
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// validID guards the UUID column: a malformed id would otherwise surface as
// a query error instead of a 404.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Get returns a single product by id.
func (s *Store) Get(ctx context.Context, id string) (models.Product, error) {
	if !validID(id) {
		return models.Product{}, catalog.ErrNotFound
	}
	defer s.observe(time.Now())
	row := s.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1", id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, catalog.ErrNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Create inserts a new pending product and returns the stored row.
func (s *Store) Create(ctx context.Context, name, source string) (models.Product, error) {
	if !models.ValidName(name) {
		return models.Product{}, catalog.ErrInvalidName
	}
	if source == "" {
		source = models.SourceManual
	}

	defer s.observe(time.Now())
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO products (name, description, status, source)
		 VALUES ($1, '', 'pending', $2)
		 RETURNING `+productColumns,
		strings.TrimSpace(name), source)
	p, err := scanProduct(row)
	if err != nil {
		return models.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

// BatchCreate inserts all valid names in one multi-VALUES statement, so the
// batch succeeds or fails as a unit.
func (s *Store) BatchCreate(ctx context.Context, names []string, source string) ([]models.Product, error) {
	valid := models.ValidNames(names)
	if len(valid) == 0 {
		return []models.Product{}, nil
	}
	if source == "" {
		source = models.SourceManual
	}

	placeholders := make([]string, 0, len(valid))
	args := make([]any, 0, len(valid)*2)
	n := 1
	for _, name := range valid {
		placeholders = append(placeholders, fmt.Sprintf("($%d, '', 'pending', $%d)", n, n+1))
		args = append(args, name, source)
		n += 2
	}

	query := `INSERT INTO products (name, description, status, source) VALUES ` +
		strings.Join(placeholders, ", ") + " RETURNING " + productColumns

	defer s.observe(time.Now())
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("batch insert: %w", err)
	}
	defer rows.Close()

	products := make([]models.Product, 0, len(valid))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inserted product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inserted products: %w", err)
	}
	return products, nil
}

// Update applies a partial patch and refreshes updated_at. Setting a
// description without an explicit status forces completed.
func (s *Store) Update(ctx context.Context, id string, upd models.ProductUpdate) (models.Product, error) {
	if upd.Description != nil && upd.Status == nil {
		completed := models.StatusCompleted
		upd.Status = &completed
	}
	if upd.Empty() {
		return s.Get(ctx, id)
	}
	if !validID(id) {
		return models.Product{}, catalog.ErrNotFound
	}

	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	n := 1
	if upd.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", n))
		args = append(args, *upd.Name)
		n++
	}
	if upd.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", n))
		args = append(args, *upd.Description)
		n++
	}
	if upd.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", n))
		args = append(args, string(*upd.Status))
		n++
	}
	if upd.ErrorMessage != nil {
		sets = append(sets, fmt.Sprintf("error_message = $%d", n))
		args = append(args, *upd.ErrorMessage)
		n++
	}
	args = append(args, id)

	query := fmt.Sprintf(
		"UPDATE products SET %s, updated_at = NOW() WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), n, productColumns)

	defer s.observe(time.Now())
	row := s.db.QueryRowContext(ctx, query, args...)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, catalog.ErrNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

// UpdateStatus sets only the status.
func (s *Store) UpdateStatus(ctx context.Context, id string, status models.ProductStatus) (models.Product, error) {
	return s.Update(ctx, id, models.ProductUpdate{Status: &status})
}

// UpdateDescription sets the description, which completes the product.
func (s *Store) UpdateDescription(ctx context.Context, id, description string) (models.Product, error) {
	return s.Update(ctx, id, models.ProductUpdate{Description: &description})
}

// Delete removes a product, reporting ErrNotFound when no row matched.
func (s *Store) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return catalog.ErrNotFound
	}
	defer s.observe(time.Now())
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if affected == 0 {
		return catalog.ErrNotFound
	}
	return nil
}
