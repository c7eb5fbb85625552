package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minhle/prodcat/internal/catalog"
)

var removeCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Remove a product by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := session.Load(ctx); err != nil {
		return fmt.Errorf("load products: %w", err)
	}

	if err := session.Remove(ctx, args[0]); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return fmt.Errorf("no product with id %s", args[0])
		}
		return fmt.Errorf("remove product: %w", err)
	}

	fmt.Printf("Removed %s\n", args[0])
	return nil
}
