package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minhle/prodcat/internal/excel"
)

var exportAll bool

var exportCmd = &cobra.Command{
	Use:   "export FILE.xlsx",
	Short: "Export the catalog to a spreadsheet",
	Long: `Export enriched products to an .xlsx workbook with name, description
and status columns. By default only completed products are exported;
use --all to include everything.

Example:
  prodcat export mo-ta-san-pham.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "export every product, not just completed ones")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := session.Load(ctx); err != nil {
		return fmt.Errorf("load products: %w", err)
	}

	products := session.Completed()
	if exportAll {
		products = session.Products()
	}
	if len(products) == 0 {
		return fmt.Errorf("nothing to export")
	}

	if err := excel.Write(args[0], products); err != nil {
		return fmt.Errorf("write spreadsheet: %w", err)
	}

	fmt.Printf("Exported %d products to %s\n", len(products), args[0])
	return nil
}
