package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Qluxzz/swedish-books/internal/cachestore"
	"github.com/Qluxzz/swedish-books/internal/config"
	"github.com/Qluxzz/swedish-books/internal/fetch"
	"github.com/Qluxzz/swedish-books/internal/goodreads"
	"github.com/Qluxzz/swedish-books/internal/libris"
	"github.com/Qluxzz/swedish-books/internal/pipeline"
)

// newHarvestCmd creates and configures the 'harvest' subcommand.
func newHarvestCmd() *cobra.Command {
	var startYear, endYear int

	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Fetches, reduces and enriches releases for the configured year range",
		Long: `Fetches one flat SPARQL result set per publication year, reduces the rows
into canonical works, enriches them with Goodreads rating data and writes
one JSON file per year. Raw responses are cached on disk, so interrupted
runs resume cheaply and completed runs replay offline.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort flush

			if cmd.Flags().Changed("start-year") {
				cfg.Years.Start = startYear
			}
			if cmd.Flags().Changed("end-year") {
				cfg.Years.End = endYear
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return runHarvest(cmd, cfg, logger)
		},
	}

	cmd.Flags().IntVar(&startYear, "start-year", 0, "first publication year to harvest (overrides config)")
	cmd.Flags().IntVar(&endYear, "end-year", 0, "last publication year to harvest (overrides config)")

	return cmd
}

func runHarvest(cmd *cobra.Command, cfg config.Config, logger *zap.Logger) error {
	fetcher, err := fetch.NewCollyFetcher(fetch.Config{
		UserAgent:   cfg.HTTP.UserAgent,
		Timeout:     cfg.HTTPTimeout(),
		Parallelism: cfg.Pipeline.FetchConcurrency + cfg.Pipeline.EnrichConcurrency,
	}, logger)
	if err != nil {
		return fmt.Errorf("init fetcher: %w", err)
	}

	sparqlCache, err := cachestore.New(filepath.Join(cfg.Cache.Dir, "json-sparql"), logger)
	if err != nil {
		return err
	}
	goodreadsCache, err := cachestore.New(filepath.Join(cfg.Cache.Dir, "goodreads"), logger)
	if err != nil {
		return err
	}

	source := libris.NewClient(
		cfg.Libris.Endpoint, fetcher, sparqlCache,
		cfg.HTTP.MaxAttempts, cfg.BackoffBase(), logger,
	)
	enricher := goodreads.NewClient(
		cfg.Goodreads.Endpoint, fetcher, goodreadsCache,
		cfg.HTTP.MaxAttempts, cfg.BackoffBase(), logger,
	)
	writer, err := pipeline.NewFileWriter(cfg.Output.JSONDir)
	if err != nil {
		return err
	}

	p := pipeline.New(source, enricher, writer, pipeline.Config{
		StartYear:         cfg.Years.Start,
		EndYear:           cfg.Years.End,
		FetchConcurrency:  cfg.Pipeline.FetchConcurrency,
		EnrichConcurrency: cfg.Pipeline.EnrichConcurrency,
		WriteConcurrency:  cfg.Pipeline.WriteConcurrency,
	}, logger)

	stats, err := p.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("run harvest: %w", err)
	}

	logger.Info("done, you can now run the import command to generate the SQLite database file",
		zap.Int("years_processed", stats.YearsProcessed),
		zap.Int("titles", stats.Titles),
	)
	return nil
}
