package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bookmapapp/bookmap/internal/catalog"
	"github.com/bookmapapp/bookmap/internal/config"
	"github.com/bookmapapp/bookmap/internal/db"
	"github.com/bookmapapp/bookmap/internal/importer"
	"github.com/bookmapapp/bookmap/internal/progress"
)

var importCmd = &cobra.Command{
	Use:   "import <pattern>...",
	Short: "Bulk-import book files into the catalog",
	Long: `Imports book files matching the given glob patterns into the catalog
database. Files may be JSON or YAML, each holding a single book or a
list of books. Patterns support ** for recursive matching:

  bookmap import "books/**/*.json" "extra/*.yaml"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if err := os.MkdirAll(cfg.Server.DataDir, 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}

		database, err := db.Open(filepath.Join(cfg.Server.DataDir, "bookmap.db"))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		im := importer.New(catalog.NewStore(database), progress.NewReporter())
		im.Verbose = verbose
		result, err := im.Run(cmd.Context(), args)
		if err != nil {
			return err
		}

		fmt.Printf("Imported %d books from %d files (%d skipped)\n",
			result.Imported, result.Files, result.Skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
