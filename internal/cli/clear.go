package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every product in the catalog",
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "skip the confirmation prompt")
}

func runClear(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := session.Load(ctx); err != nil {
		return fmt.Errorf("load products: %w", err)
	}

	products := session.Products()
	if len(products) == 0 {
		fmt.Println("Catalog is already empty.")
		return nil
	}

	if !clearYes {
		fmt.Printf("Delete all %d products? [y/N] ", len(products))
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := session.Clear(ctx); err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}

	fmt.Printf("Deleted %d products.\n", len(products))
	return nil
}
