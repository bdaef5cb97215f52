package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hscode-tools/hscode-engine/internal/engine"
)

// newIndexCmd creates the index subcommand group.
func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build and inspect the search indexes",
		Long: `Index commands build the lexical and semantic indexes over the catalog.
Indexes live in process memory, so build verifies the catalog and the
embedding provider rather than producing an artifact.`,
	}

	cmd.AddCommand(newIndexBuildCmd())
	cmd.AddCommand(newIndexStatsCmd())

	return cmd
}

// newIndexBuildCmd creates the index build subcommand.
func newIndexBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the search indexes once and report the outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()

			stats, err := buildIndexesWithUI(ctx, "Building search indexes")
			if err != nil {
				return err
			}

			if outputJSON {
				return printJSON(stats)
			}

			ui := NewUI(outputJSON, noColor)
			defer ui.Close()

			ui.Success("Indexes built in %s", FormatDuration(time.Duration(stats.BuildMS)*time.Millisecond))
			ui.KeyValue("Catalog entries", stats.Entries)
			ui.KeyValue("Lexical vocabulary", stats.Vocabulary)
			ui.KeyValue("Semantic vectors", stats.Vectors)
			ui.KeyValue("Vector dimension", stats.Dimension)
			if stats.Degraded > 0 {
				ui.Warning("%d entries indexed without a real embedding, check the provider", stats.Degraded)
			}
			return nil
		},
	}
}

// newIndexStatsCmd creates the index stats subcommand.
func newIndexStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print index statistics as a table",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()

			stats, err := buildIndexesWithUI(ctx, "Measuring indexes")
			if err != nil {
				return err
			}

			if outputJSON {
				return printJSON(stats)
			}

			ui := NewUI(outputJSON, noColor)
			defer ui.Close()

			ui.Table(
				[]string{"Metric", "Value"},
				[][]string{
					{"Catalog entries", fmt.Sprintf("%d", stats.Entries)},
					{"Lexical vocabulary", fmt.Sprintf("%d", stats.Vocabulary)},
					{"Semantic vectors", fmt.Sprintf("%d", stats.Vectors)},
					{"Degraded embeddings", fmt.Sprintf("%d", stats.Degraded)},
					{"Vector dimension", fmt.Sprintf("%d", stats.Dimension)},
					{"Build time", FormatDuration(time.Duration(stats.BuildMS) * time.Millisecond)},
				},
			)
			return nil
		},
	}
}

// buildIndexesWithUI opens the database, builds the indexes behind a
// spinner-bar and returns the build stats.
func buildIndexesWithUI(ctx context.Context, label string) (engine.IndexStats, error) {
	db, dialect, err := openDatabase(cfg)
	if err != nil {
		return engine.IndexStats{}, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	eng, _, err := buildEngine(cfg, db, dialect)
	if err != nil {
		return engine.IndexStats{}, fmt.Errorf("build engine: %w", err)
	}
	defer eng.Close()

	ui := NewUI(outputJSON, noColor)
	defer ui.Close()
	bar := ui.Spinner(label)

	stats, err := eng.BuildIndexes(ctx)
	if bar != nil {
		bar.SetTotal(1, true)
	}
	if err != nil {
		return engine.IndexStats{}, fmt.Errorf("build indexes: %w", err)
	}
	return stats, nil
}
