package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minhle/prodcat/internal/models"
)

var listStatus string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List products in the catalog",
	Long: `List products in the catalog with their enrichment status.

Examples:
  prodcat list
  prodcat list --status pending
  prodcat list -v`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listStatus, "status", "s", "", "filter by status (pending|processing|completed|error)")
}

func statusTag(p models.Product) string {
	switch p.Status {
	case models.StatusCompleted:
		return "✓"
	case models.StatusError:
		return "✗"
	case models.StatusProcessing:
		return "…"
	default:
		return "·"
	}
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if listStatus != "" && !models.ProductStatus(listStatus).Valid() {
		return fmt.Errorf("unknown status %q", listStatus)
	}

	if err := session.Load(ctx); err != nil {
		return fmt.Errorf("load products: %w", err)
	}

	products := session.Products()
	if listStatus != "" {
		filtered := products[:0]
		for _, p := range products {
			if p.Status == models.ProductStatus(listStatus) {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}

	if len(products) == 0 {
		fmt.Println("No products found.")
		return nil
	}

	fmt.Printf("Products (%d):\n\n", len(products))
	for _, p := range products {
		fmt.Printf("%s %s [%s]\n", statusTag(p), p.Name, p.Status)
		if verbose {
			fmt.Printf("  id: %s\n", p.ID)
			if p.Description != "" {
				fmt.Printf("  %s\n", p.Description)
			}
			if p.ErrorMessage != "" {
				fmt.Printf("  error: %s\n", p.ErrorMessage)
			}
		}
	}
	return nil
}
