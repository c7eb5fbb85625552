package store

import (
	"context"
	"errors"
	"testing"

	"github.com/minhle/prodcat/internal/catalog"
	"github.com/minhle/prodcat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.Create(ctx, "  Nước tương Maggi ", models.SourceManual)
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Nước tương Maggi", p.Name)
	assert.Equal(t, models.StatusPending, p.Status)
	assert.Empty(t, p.Description)
	assert.False(t, p.UpdatedAt.Before(p.CreatedAt))
}

func TestCreateInvalidName(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Create(context.Background(), "   ", models.SourceManual)
	assert.ErrorIs(t, err, catalog.ErrInvalidName)
}

func TestBatchCreateFiltersInvalid(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	products, err := s.BatchCreate(ctx, []string{"Gạo ST25", "", "  ", "Đường cát"}, models.SourceExcel)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Gạo ST25", products[0].Name)
	assert.Equal(t, "Đường cát", products[1].Name)
	for _, p := range products {
		assert.Equal(t, models.SourceExcel, p.Source)
	}

	// Nothing valid left is an empty result, not an error.
	empty, err := s.BatchCreate(ctx, []string{"", "   "}, models.SourceExcel)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUpdateDescriptionForcesCompleted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.Create(ctx, "Cà phê sữa đá", models.SourceManual)
	require.NoError(t, err)

	for _, prior := range []models.ProductStatus{models.StatusPending, models.StatusProcessing, models.StatusError} {
		_, err = s.UpdateStatus(ctx, p.ID, prior)
		require.NoError(t, err)

		updated, err := s.UpdateDescription(ctx, p.ID, "Đậm đà, thơm ngon.")
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, updated.Status, "prior status %s", prior)
		assert.Equal(t, "Đậm đà, thơm ngon.", updated.Description)
	}
}

func TestUpdateRefreshesTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.Create(ctx, "Bột ngọt", models.SourceManual)
	require.NoError(t, err)

	updated, err := s.UpdateStatus(ctx, p.ID, models.StatusProcessing)
	require.NoError(t, err)
	assert.False(t, updated.UpdatedAt.Before(p.UpdatedAt))
}

func TestUpdateNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.UpdateStatus(context.Background(), "missing", models.StatusError)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.Create(ctx, "Dầu ăn", models.SourceManual)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, p.ID))

	_, err = s.Get(ctx, p.ID)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	err = s.Delete(ctx, p.ID)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestGetAllOrderAndIdempotence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.BatchCreate(ctx, []string{"a", "b", "c"}, models.SourceManual)
	require.NoError(t, err)

	first, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, first, 3)

	// Newest first.
	assert.Equal(t, "c", first[0].Name)
	assert.Equal(t, "a", first[2].Name)

	second, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestErrorStatusKeepsStaleDescription(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.Create(ctx, "Trà ô long", models.SourceManual)
	require.NoError(t, err)

	_, err = s.UpdateDescription(ctx, p.ID, "Thanh mát.")
	require.NoError(t, err)

	updated, err := s.UpdateStatus(ctx, p.ID, models.StatusError)
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, updated.Status)
	assert.Equal(t, "Thanh mát.", updated.Description, "description is not auto-cleared")
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
}
