package integration

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hscode-tools/hscode-engine/internal/audit"
	"github.com/hscode-tools/hscode-engine/internal/cache"
	"github.com/hscode-tools/hscode-engine/internal/catalog"
	"github.com/hscode-tools/hscode-engine/internal/embedding"
	"github.com/hscode-tools/hscode-engine/internal/engine"
)

// newProductionShapedEngine wires the engine the way the API binary does in
// production: PostgreSQL catalog, Redis result cache, audit recorder. Only
// the embedder is the deterministic mock.
func newProductionShapedEngine(t *testing.T, db *sql.DB) *engine.SearchEngine {
	t.Helper()

	repo := catalog.NewRepository(db, catalog.DialectPostgres)
	redisCache, err := cache.NewRedisClient(cache.RedisConfig{
		Addr:   startRedis(t),
		Prefix: "hs:",
	})
	require.NoError(t, err)

	eng, err := engine.New(engine.Dependencies{
		Logger:     quietLogger(),
		Repository: repo,
		Embedder:   embedding.NewMockClient(64),
		Cache:      redisCache,
		Audit:      audit.NewRecorder(db, catalog.DialectPostgres, quietLogger()),
	}, engine.Config{AuditSource: "integration"})
	require.NoError(t, err)
	t.Cleanup(eng.Close)

	return eng
}

func seedCatalog(t *testing.T, db *sql.DB) {
	t.Helper()

	repo := catalog.NewRepository(db, catalog.DialectPostgres)
	rows := [][2]string{
		{"0702000000", "томаты свежие или охлажденные"},
		{"0707000000", "огурцы и корнишоны свежие или охлажденные"},
		{"0806100000", "виноград свежий"},
		{"0806200000", "виноград сушеный изюм"},
		{"2002100000", "томаты консервированные целые"},
	}
	for _, row := range rows {
		require.NoError(t, repo.Upsert(context.Background(), row[0], row[1], "ru"))
	}
}

func TestEngine_Postgres_ClassifiesAndCaches(t *testing.T) {
	skipUnlessDocker(t)

	db := startPostgres(t)
	seedCatalog(t, db)
	eng := newProductionShapedEngine(t, db)
	ctx := context.Background()

	stats, err := eng.BuildIndexes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Entries)

	resp, err := eng.Search(ctx, "томаты свежие", "ru", 0)
	require.NoError(t, err)
	require.True(t, resp.Status.Found(), "got %s: %s", resp.Status, resp.Message)
	require.NotNil(t, resp.BestMatch)
	assert.Equal(t, "0702000000", resp.BestMatch.Code)
	assert.False(t, resp.Diagnostics.FromCache)

	// Second run of the same query comes out of Redis.
	again, err := eng.Search(ctx, "томаты свежие", "ru", 0)
	require.NoError(t, err)
	assert.True(t, again.Diagnostics.FromCache)
	require.NotNil(t, again.BestMatch)
	assert.Equal(t, resp.BestMatch.Code, again.BestMatch.Code)
}

func TestEngine_Postgres_RecordsAuditTrail(t *testing.T) {
	skipUnlessDocker(t)

	db := startPostgres(t)
	seedCatalog(t, db)
	eng := newProductionShapedEngine(t, db)
	ctx := context.Background()

	_, err := eng.BuildIndexes(ctx)
	require.NoError(t, err)

	resp, err := eng.Search(ctx, "виноград сушеный", "ru", 0)
	require.NoError(t, err)
	require.True(t, resp.Status.Found())

	var recorded int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM search_results WHERE query = $1`, "виноград сушеный").Scan(&recorded))
	assert.Equal(t, 1, recorded, "every answered search leaves one audit row")
}
