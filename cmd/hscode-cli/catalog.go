package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hscode-tools/hscode-engine/internal/catalog"
)

// newCatalogCmd creates the catalog subcommand group.
func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the tariff code reference table",
	}

	cmd.AddCommand(newCatalogMigrateCmd())
	cmd.AddCommand(newCatalogLoadCmd())

	return cmd
}

// newCatalogMigrateCmd creates the catalog migrate subcommand.
func newCatalogMigrateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Long: `Migrate applies the schema for the configured database driver. The
default migration file is picked per driver from db/migrations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := openDatabase(cfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			migrationFile := file
			if migrationFile == "" {
				if cfg.Database.Driver == "postgres" {
					migrationFile = "db/migrations/0001_init.sql"
				} else {
					migrationFile = "db/migrations/0001_init_sqlite.sql"
				}
			}

			migrationSQL, err := os.ReadFile(migrationFile)
			if err != nil {
				return fmt.Errorf("read migration file: %w", err)
			}

			if _, err := db.Exec(string(migrationSQL)); err != nil {
				return fmt.Errorf("execute migration: %w", err)
			}

			if outputJSON {
				return printJSON(map[string]string{
					"target": cfg.Database.Driver,
					"file":   migrationFile,
					"status": "applied",
				})
			}

			ui := NewUI(outputJSON, noColor)
			defer ui.Close()
			ui.Success("Migrations applied on %s (%s)", cfg.Database.Driver, migrationFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "migration file (default per driver)")

	return cmd
}

// newCatalogLoadCmd creates the catalog load subcommand.
func newCatalogLoadCmd() *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Import catalog rows from a CSV export",
		Long: `Load reads code/description rows from a tariff table CSV export and
upserts them into the catalog. The delimiter is sniffed from the first
line and a header row is skipped automatically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()

			db, dialect, err := openDatabase(cfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			file, err := os.Open(csvPath)
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer file.Close()

			info, err := file.Stat()
			if err != nil {
				return fmt.Errorf("stat csv: %w", err)
			}

			var reader io.Reader = file
			var bar *ProgressBar
			if !outputJSON {
				bar = NewProgressBar(info.Size(), "importing")
				reader = io.TeeReader(file, bar)
			}

			loader := catalog.NewLoader(catalog.NewRepository(db, dialect), logger)
			stats, err := loader.Load(ctx, reader)
			if bar != nil {
				bar.Finish()
			}
			if err != nil {
				return fmt.Errorf("import catalog: %w", err)
			}

			if outputJSON {
				return printJSON(map[string]interface{}{
					"imported": stats.Imported,
					"skipped":  stats.Skipped,
				})
			}

			ui := NewUI(outputJSON, noColor)
			defer ui.Close()
			ui.Success("Imported %d rows (%d skipped) from %s", stats.Imported, stats.Skipped, csvPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "path to the CSV export (required)")
	_ = cmd.MarkFlagRequired("csv")

	return cmd
}
