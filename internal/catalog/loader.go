package catalog

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/hscode-tools/hscode-engine/internal/observability"
)

// Loader imports catalog rows from CSV exports of the tariff table.
type Loader struct {
	repo   *Repository
	logger *observability.Logger
}

// LoadStats reports one import run.
type LoadStats struct {
	Imported int
	Skipped  int
}

// NewLoader creates a new CSV loader.
func NewLoader(repo *Repository, logger *observability.Logger) *Loader {
	if logger == nil {
		logger = observability.DefaultLogger()
	}
	return &Loader{repo: repo, logger: logger}
}

// Load reads code/description rows and upserts them. The delimiter is
// sniffed from the first line, a header row is detected by its non-numeric
// first field, and rows without a valid code or description are skipped.
func (l *Loader) Load(ctx context.Context, r io.Reader) (LoadStats, error) {
	var stats LoadStats

	buffered := bufio.NewReader(r)
	delimiter, err := sniffDelimiter(buffered)
	if err != nil {
		return stats, fmt.Errorf("read catalog csv: %w", err)
	}

	reader := csv.NewReader(buffered)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	line := 0
	for {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("catalog import aborted at line %d: %w", line, err)
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read catalog csv line %d: %w", line+1, err)
		}
		line++

		if len(record) < 2 {
			stats.Skipped++
			continue
		}
		code := NormalizeCode(record[0])
		description := strings.TrimSpace(record[1])
		language := ""
		if len(record) > 2 {
			if v := strings.ToLower(strings.TrimSpace(record[2])); len(v) == 2 {
				language = v
			}
		}

		if !ValidCode(code) {
			// The first line of most exports is a header.
			if line > 1 {
				l.logger.Debug().
					Int("line", line).
					Str("code", record[0]).
					Msg("Skipping catalog row with invalid code")
			}
			stats.Skipped++
			continue
		}
		if description == "" {
			stats.Skipped++
			continue
		}

		if err := l.repo.Upsert(ctx, code, description, language); err != nil {
			return stats, err
		}
		stats.Imported++
	}

	l.logger.Info().
		Int("imported", stats.Imported).
		Int("skipped", stats.Skipped).
		Msg("Catalog import finished")
	return stats, nil
}

// sniffDelimiter peeks at the first line and picks ';' when it outnumbers
// ',' there, since tariff table exports commonly use either.
func sniffDelimiter(r *bufio.Reader) (rune, error) {
	peek, err := r.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return 0, err
	}
	firstLine := string(peek)
	if idx := strings.IndexByte(firstLine, '\n'); idx >= 0 {
		firstLine = firstLine[:idx]
	}
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		return ';', nil
	}
	return ',', nil
}
