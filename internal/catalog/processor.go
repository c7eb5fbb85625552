package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/minhle/prodcat/internal/llm"
	"github.com/minhle/prodcat/internal/metrics"
	"github.com/minhle/prodcat/internal/models"
)

// BatchSize bounds prompt size and provider load. Batches run sequentially,
// so this also caps how much work a single provider failure can poison.
const BatchSize = 3

// Describer is the slice of the LLM provider the engine needs.
type Describer interface {
	Describe(ctx context.Context, names []string) ([]llm.Result, error)
}

// PublishFunc receives a fresh snapshot after every persistence step,
// enabling progressive UI updates during a run.
type PublishFunc func(products []models.Product)

// RunResult summarizes a processing run. Products is the final snapshot;
// completed batches are never rolled back even when later batches fail.
type RunResult struct {
	Products         []models.Product
	Eligible         int
	BatchesProcessed int
	BatchesFailed    int
}

// Processor drives eligible products through the enrichment pipeline.
type Processor struct {
	repo      Repository
	describer Describer
	timeout   time.Duration
	logger    *slog.Logger
	collector *metrics.Collector
}

// NewProcessor creates a processor. timeout bounds each describe call; zero
// disables the bound.
func NewProcessor(repo Repository, describer Describer, timeout time.Duration, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{repo: repo, describer: describer, timeout: timeout, logger: logger}
}

// SetCollector enables per-call describe timing collection.
func (p *Processor) SetCollector(c *metrics.Collector) {
	p.collector = c
}

func cloneProducts(products []models.Product) []models.Product {
	out := make([]models.Product, len(products))
	copy(out, products)
	return out
}

// Run processes every pending or error product in the snapshot. The input
// slice is never mutated; the caller receives fresh copies through publish
// and the returned result. A non-nil error means at least one batch failed,
// not that the run aborted.
func (p *Processor) Run(ctx context.Context, products []models.Product, publish PublishFunc) (RunResult, error) {
	snapshot := cloneProducts(products)

	index := make(map[string]int, len(snapshot))
	for i, item := range snapshot {
		index[item.ID] = i
	}

	eligible := make([]models.Product, 0)
	for _, item := range snapshot {
		if item.Eligible() {
			eligible = append(eligible, item)
		}
	}
	if len(eligible) == 0 {
		return RunResult{Products: snapshot}, nil
	}

	p.logger.Info("processing run started", "eligible", len(eligible), "batch_size", BatchSize)

	// Move the whole eligible set to processing before any provider call.
	// The persisted transition doubles as the re-entry guard: a concurrent
	// run will no longer select these items.
	for _, item := range eligible {
		if _, err := p.repo.UpdateStatus(ctx, item.ID, models.StatusProcessing); err != nil {
			p.logger.Warn("failed to persist processing status", "id", item.ID, "error", err)
		}
		i := index[item.ID]
		snapshot[i].Status = models.StatusProcessing
		snapshot[i].UpdatedAt = time.Now()
	}
	p.publish(publish, snapshot)

	result := RunResult{Eligible: len(eligible)}
	var batchErrs []error

	for start := 0; start < len(eligible); start += BatchSize {
		end := min(start+BatchSize, len(eligible))
		batch := eligible[start:end]

		if err := p.processBatch(ctx, batch, snapshot, index); err != nil {
			result.BatchesFailed++
			batchErrs = append(batchErrs, err)
			p.logger.Error("batch failed", "batch_start", start, "size", len(batch), "error", err)
		}
		result.BatchesProcessed++
		p.publish(publish, snapshot)
	}

	result.Products = snapshot

	if len(batchErrs) > 0 {
		return result, fmt.Errorf("%d of %d batches failed: %w",
			result.BatchesFailed, result.BatchesProcessed, errors.Join(batchErrs...))
	}

	p.logger.Info("processing run completed", "batches", result.BatchesProcessed)
	return result, nil
}

// processBatch describes one batch and reconciles the results onto the
// snapshot in place. A returned error means the provider call itself failed
// and every batch member was marked error; reconciliation misses only mark
// the single unmatched item.
func (p *Processor) processBatch(ctx context.Context, batch []models.Product, snapshot []models.Product, index map[string]int) error {
	names := make([]string, len(batch))
	for i, item := range batch {
		names[i] = item.Name
	}

	describeCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		describeCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	results, err := p.describer.Describe(describeCtx, names)
	if p.collector != nil {
		if err != nil {
			p.collector.RecordError(metrics.OpDescribe)
		} else {
			p.collector.RecordTiming(metrics.OpDescribe, time.Since(start))
		}
	}
	if err != nil {
		for _, item := range batch {
			p.markError(ctx, snapshot, index, item.ID, err.Error())
		}
		return err
	}

	matches := matchResults(batch, results)
	for i, item := range batch {
		m := matches[i]
		if !m.Found {
			p.logger.Warn("no AI result matched item", "id", item.ID, "name", item.Name)
			p.markError(ctx, snapshot, index, item.ID, "no matching AI result")
			continue
		}
		if m.UsedFallback {
			p.logger.Warn("positional fallback used for item", "id", item.ID,
				"name", item.Name, "result_name", m.Result.Name)
		}

		idx := index[item.ID]
		snapshot[idx].Description = m.Result.Description
		snapshot[idx].Status = models.StatusCompleted
		snapshot[idx].UpdatedAt = time.Now()

		if _, err := p.repo.UpdateDescription(ctx, item.ID, m.Result.Description); err != nil {
			p.logger.Warn("failed to persist description", "id", item.ID, "error", err)
		}
	}
	return nil
}

func (p *Processor) markError(ctx context.Context, snapshot []models.Product, index map[string]int, id, msg string) {
	idx, ok := index[id]
	if ok {
		snapshot[idx].Status = models.StatusError
		snapshot[idx].ErrorMessage = msg
		snapshot[idx].UpdatedAt = time.Now()
	}

	status := models.StatusError
	upd := models.ProductUpdate{Status: &status, ErrorMessage: &msg}
	if _, err := p.repo.Update(ctx, id, upd); err != nil {
		p.logger.Warn("failed to persist error status", "id", id, "error", err)
	}
}

func (p *Processor) publish(publish PublishFunc, snapshot []models.Product) {
	if publish != nil {
		publish(cloneProducts(snapshot))
	}
}
