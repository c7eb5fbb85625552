package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minhle/prodcat/internal/excel"
	"github.com/minhle/prodcat/internal/models"
)

var importCmd = &cobra.Command{
	Use:   "import FILE.xlsx",
	Short: "Import product names from a spreadsheet",
	Long: `Import product names from the first column of the first sheet of an
.xlsx workbook. Blank cells are skipped.

Example:
  prodcat import danh-sach-san-pham.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	names, err := excel.ReadNames(args[0])
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	if len(names) == 0 {
		return fmt.Errorf("no product names found in %s", args[0])
	}

	if err := session.Load(ctx); err != nil {
		return fmt.Errorf("load products: %w", err)
	}

	created, err := session.AddMany(ctx, names, models.SourceExcel)
	if err != nil {
		return fmt.Errorf("import products: %w", err)
	}

	fmt.Printf("Imported %d of %d names from %s\n", len(created), len(names), args[0])
	return nil
}
