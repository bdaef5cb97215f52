package integration

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hscode-tools/hscode-engine/internal/audit"
	"github.com/hscode-tools/hscode-engine/internal/catalog"
	"github.com/hscode-tools/hscode-engine/internal/observability"
)

func quietLogger() *observability.Logger {
	return observability.NewLogger(observability.LogConfig{Level: "error", Output: io.Discard})
}

func TestCatalogRepository_Postgres_UpsertUpdatesInPlace(t *testing.T) {
	skipUnlessDocker(t)

	db := startPostgres(t)
	repo := catalog.NewRepository(db, catalog.DialectPostgres)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "0702000000", "томаты", "ru"))
	require.NoError(t, repo.Upsert(ctx, "0702000000", "томаты свежие или охлажденные", "ru"))

	entry, err := repo.LookupByCode(ctx, "0702000000")
	require.NoError(t, err)
	assert.Equal(t, "томаты свежие или охлажденные", entry.Description)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCatalogRepository_Postgres_FullTextSearchRanksStems(t *testing.T) {
	skipUnlessDocker(t)

	db := startPostgres(t)
	repo := catalog.NewRepository(db, catalog.DialectPostgres)
	ctx := context.Background()

	rows := [][2]string{
		{"0702000000", "томаты свежие или охлажденные"},
		{"0707000000", "огурцы и корнишоны свежие или охлажденные"},
		{"2002100000", "томаты консервированные целые"},
	}
	for _, row := range rows {
		require.NoError(t, repo.Upsert(ctx, row[0], row[1], "ru"))
	}

	// The russian dictionary stems "томатов" to the same lexeme as "томаты",
	// which the in-process substring layers cannot do.
	entries, err := repo.SearchText(ctx, "свежих томатов", 10)
	require.NoError(t, err)

	require.NotEmpty(t, entries)
	assert.Equal(t, "0702000000", entries[0].Code)
	for _, e := range entries {
		assert.NotEqual(t, "2002100000", e.Code, "query asked for fresh, not canned")
	}
}

func TestCatalogRepository_Postgres_PrefixSearchSkipsParentRow(t *testing.T) {
	skipUnlessDocker(t)

	db := startPostgres(t)
	repo := catalog.NewRepository(db, catalog.DialectPostgres)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "0702", "томаты свежие или охлажденные", "ru"))
	require.NoError(t, repo.Upsert(ctx, "0702000000", "томаты свежие или охлажденные прочие", "ru"))
	require.NoError(t, repo.Upsert(ctx, "0707000000", "огурцы и корнишоны", "ru"))

	entries, err := repo.SearchByPrefix(ctx, "0702", 10)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "0702000000", entries[0].Code)
}

func TestCatalogLoader_Postgres_ImportsSemicolonCSV(t *testing.T) {
	skipUnlessDocker(t)

	db := startPostgres(t)
	repo := catalog.NewRepository(db, catalog.DialectPostgres)
	ctx := context.Background()

	csv := strings.Join([]string{
		"Код;Наименование",
		"0702000000;томаты свежие или охлажденные",
		"0702 00 000 0;томаты свежие или охлажденные", // same code, printed form
		"not-a-code;мусорная строка",
		"0707000000;огурцы и корнишоны свежие",
	}, "\n")

	loader := catalog.NewLoader(repo, quietLogger())
	stats, err := loader.Load(ctx, strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Imported)
	assert.Equal(t, 2, stats.Skipped) // header and the garbage row

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "printed and plain forms of one code collapse into one row")
}

func TestAuditRecorder_Postgres_WritesThroughMigratedSchema(t *testing.T) {
	skipUnlessDocker(t)

	db := startPostgres(t)
	ctx := context.Background()

	// No EnsureSchema here: the audit tables must come out of the migration
	// exactly as the recorder expects them.
	recorder := audit.NewRecorder(db, catalog.DialectPostgres, quietLogger())

	recorder.LogNotFound(ctx, "фиолетовый трактор", "ru", "api")
	recorder.SaveSearchResult(ctx, audit.SearchRecord{
		TraceID:  "trace-1",
		Query:    "свежие томаты",
		Language: "ru",
		Status:   "high_confidence",
		Main:     &audit.RankedCode{Code: "0702000000", Description: "томаты свежие", Confidence: 0.93},
		Similar: []audit.RankedCode{
			{Code: "2002100000", Description: "томаты консервированные", Confidence: 0.61},
		},
		TotalFound: 2,
		Duration:   45 * time.Millisecond,
	})

	var notFound int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM not_found_queries WHERE query = $1`, "фиолетовый трактор").Scan(&notFound))
	assert.Equal(t, 1, notFound)

	var status, mainCode string
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT status, main_code FROM search_results WHERE trace_id = $1`, "trace-1").Scan(&status, &mainCode))
	assert.Equal(t, "high_confidence", status)
	assert.Equal(t, "0702000000", mainCode)
}
