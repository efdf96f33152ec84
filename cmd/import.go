package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Qluxzz/swedish-books/internal/importer"
)

// newImportCmd creates and configures the 'import' subcommand.
func newImportCmd() *cobra.Command {
	var jsonDir, databaseFile string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Builds the SQLite database from the harvested JSON files",
		Long: `Reads the per-year JSON files produced by the harvest command, filters to
works by deceased authors with plausible page counts, and loads them into a
fresh SQLite database ready for distribution.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort flush

			if !cmd.Flags().Changed("json-dir") {
				jsonDir = cfg.Output.JSONDir
			}
			if !cmd.Flags().Changed("database") {
				databaseFile = cfg.Output.DatabaseFile
			}

			stats, err := importer.Run(cmd.Context(), jsonDir, databaseFile, logger)
			if err != nil {
				return err
			}

			logger.Info("import finished",
				zap.String("database", databaseFile),
				zap.Int("books", stats.Books),
				zap.Int("skipped", stats.Skipped),
				zap.Int("removed_authors", stats.RemovedAuthors),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&jsonDir, "json-dir", "", "directory of per-year JSON files (overrides config)")
	cmd.Flags().StringVar(&databaseFile, "database", "", "path of the SQLite database to create (overrides config)")

	return cmd
}
