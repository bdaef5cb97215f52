package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hscode-tools/hscode-engine/internal/engine"
)

// newClassifyCmd creates the classify subcommand.
func newClassifyCmd() *cobra.Command {
	var (
		query    string
		language string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a product description into a tariff code",
		Long: `Classify builds the search indexes over the configured catalog and runs
one classification search, exactly as the API would answer it.

The first run against a large catalog takes a while: every catalog entry is
embedded through the configured provider before the query executes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()

			if language == "" {
				language = cfg.Search.Language
			}

			db, dialect, err := openDatabase(cfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			eng, _, err := buildEngine(cfg, db, dialect)
			if err != nil {
				return fmt.Errorf("build engine: %w", err)
			}
			defer eng.Close()

			spin := NewSpinner("Building search indexes…")
			if !outputJSON {
				spin.Start()
			}
			stats, err := eng.BuildIndexes(ctx)
			spin.Stop()
			if err != nil {
				return fmt.Errorf("build indexes: %w", err)
			}

			resp, err := eng.Search(ctx, query, language, limit)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			if outputJSON {
				return printJSON(resp)
			}

			printClassification(NewUI(outputJSON, noColor), stats.Entries, resp)
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "product description to classify (required)")
	cmd.Flags().StringVarP(&language, "language", "l", "", "query language: ru, uz or en (default from config)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "cap on similar matches and suggestions")

	_ = cmd.MarkFlagRequired("query")

	return cmd
}

// printClassification renders one search outcome for a terminal.
func printClassification(ui *UI, catalogSize int, resp *engine.Response) {
	defer ui.Close()

	switch resp.Status {
	case engine.StatusHighConfidence, engine.StatusMediumConfidence:
		ui.Success("%s", resp.Message)
	case engine.StatusLowConfidence, engine.StatusNotFoundWithSuggestions:
		ui.Warning("%s", resp.Message)
	default:
		ui.Error("%s", resp.Message)
	}

	if resp.BestMatch != nil {
		ui.Newline()
		ui.KeyValue("Code", formatCode(resp.BestMatch.Code))
		ui.KeyValue("Confidence", fmt.Sprintf("%.2f", resp.BestMatch.Confidence))
		ui.KeyValue("Description", resp.BestMatch.Description)
		ui.KeyValue("Matched via", resp.BestMatch.Source)
	}

	if len(resp.Similar) > 0 {
		title := "Similar codes"
		if resp.BestMatch == nil {
			title = "Closest suggestions"
		}
		ui.Section(title)

		rows := make([][]string, 0, len(resp.Similar))
		for _, m := range resp.Similar {
			rows = append(rows, []string{
				formatCode(m.Code),
				fmt.Sprintf("%.2f", m.Confidence),
				m.Source,
				m.Description,
			})
		}
		ui.Table([]string{"Code", "Confidence", "Via", "Description"}, rows)
	}

	ui.Newline()
	ui.Info("Answered by the %s stage over %d catalog entries in %dms",
		resp.Diagnostics.Source, catalogSize, resp.Diagnostics.ProcessingTimeMS)
	if len(resp.Diagnostics.Warnings) > 0 {
		for _, w := range resp.Diagnostics.Warnings {
			ui.Warning("%s", w)
		}
	}
}

// formatCode renders a ten-digit code in the published 4-2-3-1 grouping.
func formatCode(code string) string {
	if len(code) != 10 {
		return code
	}
	return strings.Join([]string{code[:4], code[4:6], code[6:9], code[9:]}, " ")
}
