package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minhle/prodcat/internal/catalog"
	"github.com/minhle/prodcat/internal/llm"
	"github.com/minhle/prodcat/internal/metrics"
	"github.com/minhle/prodcat/internal/models"
)

var processPlain bool

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Generate descriptions for pending products",
	Long: `Run the enrichment pipeline: every pending or errored product is sent
to the configured LLM provider in batches and receives a marketing
description. Progress is shown live; use --plain for script-friendly
line output.`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().BoolVar(&processPlain, "plain", false, "plain line output instead of the progress UI")
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := session.Load(ctx); err != nil {
		return fmt.Errorf("load products: %w", err)
	}

	eligible := session.PendingOrError()
	if len(eligible) == 0 {
		fmt.Println("Nothing to process.")
		return nil
	}

	describer, err := llm.NewDescriber(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init describer: %w", err)
	}
	proc := catalog.NewProcessor(repo, describer, cfg.DescribeTimeout, logger)
	collector := metrics.NewCollector()
	proc.SetCollector(collector)

	var runErr error
	if processPlain {
		runErr = runProcessPlain(ctx, proc, eligible)
	} else {
		runErr = runProcessProgress(ctx, session, proc, eligible)
	}

	if verbose {
		if snap := collector.Snapshot(); snap.Describe != nil {
			fmt.Printf("Describe calls: %d (%d failed), avg %.0fms\n",
				snap.Describe.Count, snap.Describe.Errors, snap.Describe.AvgTimeMs)
		}
	}
	return runErr
}

func terminalCount(products []models.Product, eligible map[string]bool) (completed, failed int) {
	for _, p := range products {
		if !eligible[p.ID] {
			continue
		}
		switch p.Status {
		case models.StatusCompleted:
			completed++
		case models.StatusError:
			failed++
		}
	}
	return completed, failed
}

func eligibleSet(eligible []models.Product) map[string]bool {
	set := make(map[string]bool, len(eligible))
	for _, p := range eligible {
		set[p.ID] = true
	}
	return set
}

func runProcessPlain(ctx context.Context, proc *catalog.Processor, eligible []models.Product) error {
	set := eligibleSet(eligible)
	total := len(eligible)
	fmt.Printf("Processing %d products in batches of %d...\n", total, catalog.BatchSize)

	result, err := session.Process(ctx, proc, func(snapshot []models.Product) {
		completed, failed := terminalCount(snapshot, set)
		fmt.Printf("  %d/%d done (%d errors)\n", completed+failed, total, failed)
	})

	completed, failed := terminalCount(result.Products, set)
	fmt.Printf("Completed: %d, errors: %d\n", completed, failed)
	if err != nil {
		return fmt.Errorf("processing finished with errors: %w", err)
	}
	return nil
}
