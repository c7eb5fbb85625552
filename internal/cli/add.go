package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minhle/prodcat/internal/models"
)

var addCmd = &cobra.Command{
	Use:   "add NAME...",
	Short: "Add one or more products by name",
	Long: `Add products to the catalog. Each argument is one product name;
quote names containing spaces.

Examples:
  prodcat add "Mì Hảo Hảo"
  prodcat add "Trà xanh 0 độ" "Sữa tươi Vinamilk"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := session.Load(ctx); err != nil {
		return fmt.Errorf("load products: %w", err)
	}

	if len(args) == 1 {
		p, err := session.Add(ctx, args[0])
		if err != nil {
			return fmt.Errorf("add product: %w", err)
		}
		fmt.Printf("Added %q (%s)\n", p.Name, p.ID)
		return nil
	}

	created, err := session.AddMany(ctx, args, models.SourceManual)
	if err != nil {
		return fmt.Errorf("add products: %w", err)
	}
	if len(created) == 0 {
		fmt.Println("No valid names to add.")
		return nil
	}

	fmt.Printf("Added %d products:\n", len(created))
	for _, p := range created {
		fmt.Printf("- %s (%s)\n", p.Name, p.ID)
	}
	return nil
}
