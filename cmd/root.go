// Package cmd defines and implements the CLI commands for the swedish-books
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Qluxzz/swedish-books/internal/config"
	"github.com/Qluxzz/swedish-books/internal/logging"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swedish-books",
		Short: "Harvests Swedish original literature from Libris and enriches it with Goodreads data.",
		Long: `swedish-books builds a dataset of Swedish-language original (non-translated)
literary works. The harvest command fetches flat SPARQL results per
publication year from the Libris national catalogue, reduces them into
canonical works, enriches them with Goodreads rating data and writes one
JSON file per year. The import command loads the accumulated JSON into a
distributable SQLite database.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; defaults and BOOKS_* env vars apply without one)")

	cmd.AddCommand(newHarvestCmd())
	cmd.AddCommand(newImportCmd())

	return cmd
}

// setup loads configuration and builds the logger shared by all commands.
func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
