package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhle/prodcat/internal/llm"
	"github.com/minhle/prodcat/internal/models"
)

// fakeRepo is an in-memory Repository with per-method error injection.
type fakeRepo struct {
	mu       sync.Mutex
	products map[string]models.Product
	order    []string

	createErr error
	batchErr  error
	deleteErr func(id string) error

	deletes []string
	updates []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{products: make(map[string]models.Product)}
}

func (r *fakeRepo) seed(names ...string) []models.Product {
	out := make([]models.Product, 0, len(names))
	for _, name := range names {
		p, _ := r.Create(context.Background(), name, models.SourceManual)
		out = append(out, p)
	}
	return out
}

func (r *fakeRepo) GetAll(_ context.Context) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Product, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.products[id])
	}
	return out, nil
}

func (r *fakeRepo) Get(_ context.Context, id string) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return models.Product{}, ErrNotFound
	}
	return p, nil
}

func (r *fakeRepo) Create(_ context.Context, name, source string) (models.Product, error) {
	if r.createErr != nil {
		return models.Product{}, r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p := models.Product{
		ID:     uuid.New().String(),
		Name:   name,
		Status: models.StatusPending,
		Source: source,
	}
	r.products[p.ID] = p
	r.order = append(r.order, p.ID)
	return p, nil
}

func (r *fakeRepo) BatchCreate(ctx context.Context, names []string, source string) ([]models.Product, error) {
	if r.batchErr != nil {
		return nil, r.batchErr
	}
	out := make([]models.Product, 0, len(names))
	for _, name := range names {
		p, err := r.Create(ctx, name, source)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeRepo) Update(_ context.Context, id string, upd models.ProductUpdate) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return models.Product{}, ErrNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
		if upd.Status == nil {
			p.Status = models.StatusCompleted
		}
	}
	if upd.Status != nil {
		p.Status = *upd.Status
	}
	if upd.ErrorMessage != nil {
		p.ErrorMessage = *upd.ErrorMessage
	}
	r.products[id] = p
	r.updates = append(r.updates, id)
	return p, nil
}

func (r *fakeRepo) UpdateStatus(ctx context.Context, id string, status models.ProductStatus) (models.Product, error) {
	return r.Update(ctx, id, models.ProductUpdate{Status: &status})
}

func (r *fakeRepo) UpdateDescription(ctx context.Context, id, description string) (models.Product, error) {
	return r.Update(ctx, id, models.ProductUpdate{Description: &description})
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	if r.deleteErr != nil {
		if err := r.deleteErr(id); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return ErrNotFound
	}
	delete(r.products, id)
	kept := r.order[:0]
	for _, oid := range r.order {
		if oid != id {
			kept = append(kept, oid)
		}
	}
	r.order = kept
	r.deletes = append(r.deletes, id)
	return nil
}

// fakeDescriber records every call and answers via fn.
type fakeDescriber struct {
	mu    sync.Mutex
	calls [][]string
	fn    func(call int, names []string) ([]llm.Result, error)
}

func (d *fakeDescriber) Describe(_ context.Context, names []string) ([]llm.Result, error) {
	d.mu.Lock()
	call := len(d.calls)
	d.calls = append(d.calls, append([]string(nil), names...))
	d.mu.Unlock()
	return d.fn(call, names)
}

func echoDescriber() *fakeDescriber {
	return &fakeDescriber{fn: func(_ int, names []string) ([]llm.Result, error) {
		out := make([]llm.Result, len(names))
		for i, n := range names {
			out[i] = llm.Result{Name: n, Description: "mô tả " + n}
		}
		return out, nil
	}}
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestProcessorBatchesOfThree(t *testing.T) {
	repo := newFakeRepo()
	products := repo.seed("P1", "P2", "P3", "P4", "P5", "P6", "P7")
	desc := echoDescriber()
	proc := NewProcessor(repo, desc, 0, discard())

	result, err := proc.Run(context.Background(), products, nil)
	require.NoError(t, err)

	require.Len(t, desc.calls, 3)
	assert.Equal(t, []string{"P1", "P2", "P3"}, desc.calls[0])
	assert.Equal(t, []string{"P4", "P5", "P6"}, desc.calls[1])
	assert.Equal(t, []string{"P7"}, desc.calls[2])

	assert.Equal(t, 7, result.Eligible)
	assert.Equal(t, 3, result.BatchesProcessed)
	assert.Equal(t, 0, result.BatchesFailed)
	for _, p := range result.Products {
		assert.Equal(t, models.StatusCompleted, p.Status)
		assert.Equal(t, "mô tả "+p.Name, p.Description)
	}
}

func TestProcessorSkipsIneligible(t *testing.T) {
	repo := newFakeRepo()
	products := repo.seed("A", "B", "C")
	// B is already enriched, C is mid-flight from another run.
	products[1].Status = models.StatusCompleted
	products[2].Status = models.StatusProcessing
	desc := echoDescriber()
	proc := NewProcessor(repo, desc, 0, discard())

	result, err := proc.Run(context.Background(), products, nil)
	require.NoError(t, err)

	require.Len(t, desc.calls, 1)
	assert.Equal(t, []string{"A"}, desc.calls[0])
	assert.Equal(t, 1, result.Eligible)
	assert.Equal(t, models.StatusCompleted, result.Products[1].Status)
	assert.Equal(t, models.StatusProcessing, result.Products[2].Status)
}

func TestProcessorNoEligibleIsNoOp(t *testing.T) {
	repo := newFakeRepo()
	products := repo.seed("A")
	products[0].Status = models.StatusCompleted
	desc := echoDescriber()
	proc := NewProcessor(repo, desc, 0, discard())

	result, err := proc.Run(context.Background(), products, nil)
	require.NoError(t, err)
	assert.Empty(t, desc.calls)
	assert.Equal(t, 0, result.Eligible)
}

func TestProcessorRetriesErrored(t *testing.T) {
	repo := newFakeRepo()
	products := repo.seed("A")
	products[0].Status = models.StatusError
	products[0].ErrorMessage = "timeout"
	desc := echoDescriber()
	proc := NewProcessor(repo, desc, 0, discard())

	result, err := proc.Run(context.Background(), products, nil)
	require.NoError(t, err)
	require.Len(t, desc.calls, 1)
	assert.Equal(t, models.StatusCompleted, result.Products[0].Status)
}

func TestProcessorMarksProcessingBeforeDescribe(t *testing.T) {
	repo := newFakeRepo()
	products := repo.seed("A", "B")

	var firstSnapshot []models.Product
	desc := &fakeDescriber{fn: func(_ int, names []string) ([]llm.Result, error) {
		out := make([]llm.Result, len(names))
		for i, n := range names {
			out[i] = llm.Result{Name: n, Description: "d"}
		}
		return out, nil
	}}
	proc := NewProcessor(repo, desc, 0, discard())

	_, err := proc.Run(context.Background(), products, func(snapshot []models.Product) {
		if firstSnapshot == nil {
			firstSnapshot = snapshot
		}
	})
	require.NoError(t, err)

	require.NotNil(t, firstSnapshot)
	for _, p := range firstSnapshot {
		assert.Equal(t, models.StatusProcessing, p.Status)
	}
}

func TestProcessorUnmatchedItemErrors(t *testing.T) {
	repo := newFakeRepo()
	products := repo.seed("A", "B", "C")

	// Two of three names echoed back; count mismatch blocks the fallback.
	desc := &fakeDescriber{fn: func(_ int, names []string) ([]llm.Result, error) {
		return []llm.Result{
			{Name: "A", Description: "da"},
			{Name: "C", Description: "dc"},
		}, nil
	}}
	proc := NewProcessor(repo, desc, 0, discard())

	result, err := proc.Run(context.Background(), products, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, result.Products[0].Status)
	assert.Equal(t, models.StatusError, result.Products[1].Status)
	assert.Equal(t, "no matching AI result", result.Products[1].ErrorMessage)
	assert.Equal(t, models.StatusCompleted, result.Products[2].Status)

	stored, err := repo.Get(context.Background(), products[1].ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, stored.Status)
}

func TestProcessorPositionalFallback(t *testing.T) {
	repo := newFakeRepo()
	products := repo.seed("A", "B", "C")

	desc := &fakeDescriber{fn: func(_ int, names []string) ([]llm.Result, error) {
		return []llm.Result{
			{Name: "Sản phẩm 1", Description: "da"},
			{Name: "Sản phẩm 2", Description: "db"},
			{Name: "Sản phẩm 3", Description: "dc"},
		}, nil
	}}
	proc := NewProcessor(repo, desc, 0, discard())

	result, err := proc.Run(context.Background(), products, nil)
	require.NoError(t, err)

	for i, want := range []string{"da", "db", "dc"} {
		assert.Equal(t, models.StatusCompleted, result.Products[i].Status)
		assert.Equal(t, want, result.Products[i].Description)
	}
}

func TestProcessorBatchFailureIsIsolated(t *testing.T) {
	repo := newFakeRepo()
	products := repo.seed("P1", "P2", "P3", "P4", "P5", "P6")

	// Second batch blows up; first already landed and must stay completed.
	desc := &fakeDescriber{fn: func(call int, names []string) ([]llm.Result, error) {
		if call == 1 {
			return nil, fmt.Errorf("provider unavailable")
		}
		out := make([]llm.Result, len(names))
		for i, n := range names {
			out[i] = llm.Result{Name: n, Description: "d"}
		}
		return out, nil
	}}
	proc := NewProcessor(repo, desc, 0, discard())

	result, err := proc.Run(context.Background(), products, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 batches failed")

	assert.Equal(t, 2, result.BatchesProcessed)
	assert.Equal(t, 1, result.BatchesFailed)

	for i := range 3 {
		assert.Equal(t, models.StatusCompleted, result.Products[i].Status, "batch one item %d", i)
	}
	for i := 3; i < 6; i++ {
		assert.Equal(t, models.StatusError, result.Products[i].Status, "batch two item %d", i)
		assert.Equal(t, "provider unavailable", result.Products[i].ErrorMessage)
	}
}

func TestProcessorDoesNotMutateInput(t *testing.T) {
	repo := newFakeRepo()
	products := repo.seed("A")
	desc := echoDescriber()
	proc := NewProcessor(repo, desc, 0, discard())

	_, err := proc.Run(context.Background(), products, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, products[0].Status)
	assert.Empty(t, products[0].Description)
}

func TestProcessorDescribeErrorKindSurfaces(t *testing.T) {
	repo := newFakeRepo()
	products := repo.seed("A")

	parseErr := &llm.DescribeError{Kind: llm.KindParse, Msg: "invalid JSON"}
	desc := &fakeDescriber{fn: func(int, []string) ([]llm.Result, error) {
		return nil, parseErr
	}}
	proc := NewProcessor(repo, desc, 0, discard())

	_, err := proc.Run(context.Background(), products, nil)
	require.Error(t, err)

	var de *llm.DescribeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, llm.KindParse, de.Kind)
}
