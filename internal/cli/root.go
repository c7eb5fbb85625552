// Package cli provides the command-line interface for prodcat.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/minhle/prodcat/internal/catalog"
	"github.com/minhle/prodcat/internal/client"
	"github.com/minhle/prodcat/internal/config"
	"github.com/minhle/prodcat/internal/store"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose      bool
	localBackend bool

	// Global config and session state
	cfg     config.Config
	repo    catalog.Repository
	session *catalog.Session
	logger  *slog.Logger

	logCleanup  func() error
	storeCloser io.Closer
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "prodcat",
	Short: "Product catalog with AI-generated descriptions",
	Long: `Prodcat manages a product catalog and enriches it with marketing
descriptions generated by an LLM provider.

Products are stored either on a prodcat server (default) or in a local
database (--local). Add names by hand or import them from a spreadsheet,
then run "prodcat process" to generate descriptions in batches.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for commands that never touch a backend
		if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		cfg = config.Load()
		if path := config.DefaultConfigPath(); path != "" {
			if err := cfg.ApplyFile(path); err != nil {
				return err
			}
		}

		logger, logCleanup = config.SetupLogger(cfg.LogFile, cfg.LogLevel)

		if localBackend || cfg.Backend == config.BackendLocal {
			s, err := store.Open(cfg.StorePath, logger)
			if err != nil {
				return fmt.Errorf("open local store: %w", err)
			}
			repo = s
			storeCloser = s
		} else {
			repo = client.New(cfg.ServerURL)
		}

		session = catalog.NewSession(repo)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if storeCloser != nil {
			if err := storeCloser.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
			}
		}
		if logCleanup != nil {
			_ = logCleanup()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&localBackend, "local", false, "use the local store instead of the server")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(processCmd)
}

// exitWithError prints an error message and exits with code 1.
func exitWithError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
