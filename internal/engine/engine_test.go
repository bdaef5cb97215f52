package engine

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hscode-tools/hscode-engine/internal/audit"
	"github.com/hscode-tools/hscode-engine/internal/cache"
	"github.com/hscode-tools/hscode-engine/internal/catalog"
	"github.com/hscode-tools/hscode-engine/internal/embedding"
	"github.com/hscode-tools/hscode-engine/internal/observability"
	"github.com/hscode-tools/hscode-engine/internal/scoring"
	"github.com/hscode-tools/hscode-engine/internal/textproc"
)

func quietLogger() *observability.Logger {
	return observability.NewLogger(observability.LogConfig{Level: "error", Output: io.Discard})
}

func newTestCatalog(t *testing.T, rows [][2]string) (*catalog.Repository, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// One connection, or the pool would hand out fresh empty databases.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE catalog_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			code TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL,
			language TEXT NOT NULL DEFAULT 'ru',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	require.NoError(t, err)

	repo := catalog.NewRepository(db, catalog.DialectSQLite)
	for _, row := range rows {
		require.NoError(t, repo.Upsert(context.Background(), row[0], row[1], "ru"))
	}
	return repo, db
}

// defaultRows is a small but realistic catalog slice: two verbatim tomato
// wordings, a cucumber neighbor, a processed tomato product and an unrelated
// chapter.
func defaultRows() [][2]string {
	return [][2]string{
		{"0702000000", "томаты свежие или охлажденные"},
		{"2002100000", "томаты консервированные целые"},
		{"0707000000", "огурцы и корнишоны свежие или охлажденные"},
		{"2002900000", "паста томатная концентрированная"},
		{"0101210000", "лошади чистопородные племенные животные"},
	}
}

func newTestEngine(t *testing.T, deps Dependencies, rows [][2]string) *SearchEngine {
	t.Helper()

	if rows == nil {
		rows = defaultRows()
	}
	if deps.Repository == nil {
		repo, _ := newTestCatalog(t, rows)
		deps.Repository = repo
	}
	if deps.Embedder == nil {
		deps.Embedder = embedding.NewMockClient(32)
	}
	if deps.Logger == nil {
		deps.Logger = quietLogger()
	}
	eng, err := New(deps, Config{})
	require.NoError(t, err)
	t.Cleanup(eng.Close)

	_, err = eng.BuildIndexes(context.Background())
	require.NoError(t, err)
	return eng
}

// failingEmbedder simulates an embedding provider outage. Index builds
// degrade to zero vectors and queries fall back to lexical retrieval only.
type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("provider offline")
}

func (failingEmbedder) EmbedSingle(context.Context, string) ([]float32, error) {
	return nil, errors.New("provider offline")
}

func (failingEmbedder) Model() string  { return "offline" }
func (failingEmbedder) Dimension() int { return 32 }

func TestNew_RequiresRepositoryAndEmbedder(t *testing.T) {
	repo, _ := newTestCatalog(t, nil)

	_, err := New(Dependencies{Embedder: embedding.NewMockClient(8)}, Config{})
	assert.Error(t, err)

	_, err = New(Dependencies{Repository: repo}, Config{})
	assert.Error(t, err)
}

func TestSearchEngine_Search_EmptyQuery(t *testing.T) {
	eng := newTestEngine(t, Dependencies{}, nil)

	_, err := eng.Search(context.Background(), "   ", "ru", 0)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearchEngine_Search_BeforeIndexBuildReturnsSystemError(t *testing.T) {
	repo, _ := newTestCatalog(t, defaultRows())
	eng, err := New(Dependencies{
		Logger:     quietLogger(),
		Repository: repo,
		Embedder:   embedding.NewMockClient(8),
	}, Config{})
	require.NoError(t, err)
	t.Cleanup(eng.Close)

	assert.False(t, eng.Ready())
	_, err = eng.Stats()
	assert.ErrorIs(t, err, ErrIndexNotReady)

	resp, err := eng.Search(context.Background(), "томаты", "ru", 0)
	require.NoError(t, err)
	assert.Equal(t, StatusSystemError, resp.Status)
	assert.Nil(t, resp.BestMatch)
}

func TestSearchEngine_BuildIndexes_ReportsStats(t *testing.T) {
	eng := newTestEngine(t, Dependencies{}, nil)

	assert.True(t, eng.Ready())
	stats, err := eng.Stats()
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Entries)
	assert.Equal(t, 5, stats.Vectors)
	assert.Equal(t, 32, stats.Dimension)
	assert.Positive(t, stats.Vocabulary)
	assert.False(t, stats.BuiltAt.IsZero())
}

func TestSearchEngine_Search_ExactCodeBypassesRetrieval(t *testing.T) {
	eng := newTestEngine(t, Dependencies{}, nil)

	for _, query := range []string{"0702000000", "0702 00 000 0"} {
		resp, err := eng.Search(context.Background(), query, "ru", 0)
		require.NoError(t, err)

		assert.Equal(t, StatusHighConfidence, resp.Status, "query %q", query)
		require.NotNil(t, resp.BestMatch)
		assert.Equal(t, "0702000000", resp.BestMatch.Code)
		assert.Equal(t, 1.0, resp.BestMatch.Confidence)
		assert.Equal(t, "exact_code", resp.BestMatch.Source)
		assert.Equal(t, "exact", resp.Diagnostics.Source)
	}
}

func TestSearchEngine_Search_VerbatimPhraseWinsWithFullConfidence(t *testing.T) {
	eng := newTestEngine(t, Dependencies{}, nil)

	resp, err := eng.Search(context.Background(), "томаты свежие", "ru", 0)
	require.NoError(t, err)

	// The normalized query opens the catalog wording, so the position
	// bonus is maximal: 0.9 + 1.0*0.1 = 1.0.
	assert.Equal(t, StatusHighConfidence, resp.Status)
	require.NotNil(t, resp.BestMatch)
	assert.Equal(t, "0702000000", resp.BestMatch.Code)
	assert.Equal(t, 1.0, resp.BestMatch.Confidence)
	assert.Equal(t, "exact_phrase", resp.BestMatch.Source)
	assert.Equal(t, "hybrid", resp.Diagnostics.Source)
}

func TestSearchEngine_Search_SynonymVariantFindsCatalogWording(t *testing.T) {
	eng := newTestEngine(t, Dependencies{}, nil)

	resp, err := eng.Search(context.Background(), "помидоры свежие", "ru", 0)
	require.NoError(t, err)

	assert.Equal(t, StatusHighConfidence, resp.Status)
	require.NotNil(t, resp.BestMatch)
	assert.Equal(t, "0702000000", resp.BestMatch.Code)
	assert.Contains(t, resp.Diagnostics.ExpandedQueries, "томаты свежие")
	assert.Contains(t, resp.Diagnostics.ExpandedQueries, "помидоры свежие")
}

func TestSearchEngine_Search_PhrasePositionLowersScore(t *testing.T) {
	// No category rule mentions stationery, so the verbatim hit cannot be
	// displaced by a boosted fusion score.
	rows := [][2]string{{"9609101000", "изделия канцелярские карандаши цветные"}}
	eng := newTestEngine(t, Dependencies{Embedder: failingEmbedder{}}, rows)

	resp, err := eng.Search(context.Background(), "карандаши цветные", "ru", 0)
	require.NoError(t, err)

	// The phrase starts 21 runes into a 38 rune description:
	// 0.9 + (1 - 21/38*0.3)*0.1 = 0.98342.
	require.NotNil(t, resp.BestMatch)
	assert.Equal(t, "exact_phrase", resp.BestMatch.Source)
	assert.InDelta(t, 0.9834, resp.BestMatch.Confidence, 0.0001)
	assert.Equal(t, StatusHighConfidence, resp.Status)
}

func TestSearchEngine_Search_RanksTiedScoresByCode(t *testing.T) {
	eng := newTestEngine(t, Dependencies{}, nil)

	resp, err := eng.Search(context.Background(), "томаты", "ru", 0)
	require.NoError(t, err)

	// Both verbatim hits score 1.0; the lower code wins the tie.
	require.NotNil(t, resp.BestMatch)
	assert.Equal(t, "0702000000", resp.BestMatch.Code)

	codes := make([]string, 0, len(resp.Similar))
	for i, m := range resp.Similar {
		codes = append(codes, m.Code)
		if i > 0 {
			assert.LessOrEqual(t, m.Confidence, resp.Similar[i-1].Confidence)
		}
		assert.LessOrEqual(t, m.Confidence, resp.BestMatch.Confidence)
	}
	assert.Contains(t, codes, "2002100000")
}

func TestSearchEngine_Search_LimitCapsSimilar(t *testing.T) {
	eng := newTestEngine(t, Dependencies{}, nil)

	resp, err := eng.Search(context.Background(), "томаты", "ru", 1)
	require.NoError(t, err)

	require.NotNil(t, resp.BestMatch)
	assert.LessOrEqual(t, len(resp.Similar), 1)
}

func TestSearchEngine_Search_CacheRoundTrip(t *testing.T) {
	client := cache.NewMemoryClient(cache.MemoryConfig{})
	t.Cleanup(func() { _ = client.Close() })
	eng := newTestEngine(t, Dependencies{Cache: client}, nil)

	first, err := eng.Search(context.Background(), "томаты свежие", "ru", 0)
	require.NoError(t, err)
	assert.False(t, first.Diagnostics.FromCache)

	// The cache write is asynchronous.
	require.Eventually(t, func() bool {
		return eng.CacheStats().Stored >= 1
	}, time.Second, 5*time.Millisecond)

	second, err := eng.Search(context.Background(), "томаты свежие", "ru", 0)
	require.NoError(t, err)
	assert.True(t, second.Diagnostics.FromCache)
	assert.Equal(t, first.Status, second.Status)
	require.NotNil(t, second.BestMatch)
	assert.Equal(t, first.BestMatch.Code, second.BestMatch.Code)
	assert.GreaterOrEqual(t, second.Diagnostics.ProcessingTimeMS, int64(1))
	assert.EqualValues(t, 1, eng.CacheStats().Hits)
}

func TestSearchEngine_Search_EmbedderOutageDegradesToLexical(t *testing.T) {
	eng := newTestEngine(t, Dependencies{Embedder: failingEmbedder{}}, nil)

	resp, err := eng.Search(context.Background(), "томаты свежие", "ru", 0)
	require.NoError(t, err)

	assert.Equal(t, StatusHighConfidence, resp.Status)
	require.NotNil(t, resp.BestMatch)
	assert.Equal(t, "0702000000", resp.BestMatch.Code)
}

func TestSearchEngine_Search_NonsenseReturnsNotFound(t *testing.T) {
	eng := newTestEngine(t, Dependencies{Embedder: failingEmbedder{}}, nil)

	resp, err := eng.Search(context.Background(), "кзфшрвлт опжцдайс", "ru", 0)
	require.NoError(t, err)

	assert.Equal(t, StatusNotFound, resp.Status)
	assert.Nil(t, resp.BestMatch)
	assert.Empty(t, resp.Similar)
	assert.Equal(t, "none", resp.Diagnostics.Source)
}

func TestSearchEngine_Search_AuditTrail(t *testing.T) {
	repo, db := newTestCatalog(t, defaultRows())
	rec := audit.NewRecorder(db, catalog.DialectSQLite, quietLogger())
	require.NoError(t, rec.EnsureSchema(context.Background()))

	eng := newTestEngine(t, Dependencies{
		Repository: repo,
		Embedder:   failingEmbedder{},
		Audit:      rec,
	}, nil)

	_, err := eng.Search(context.Background(), "томаты свежие", "ru", 0)
	require.NoError(t, err)

	var results int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM search_results`).Scan(&results))
	assert.Equal(t, 1, results)

	_, err = eng.Search(context.Background(), "кзфшрвлт", "ru", 0)
	require.NoError(t, err)

	var missed int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM not_found_queries WHERE query = 'кзфшрвлт'`,
	).Scan(&missed))
	assert.Equal(t, 1, missed)
}

func TestSearchEngine_Search_KeepsUnvalidatedWhenCatalogEmptied(t *testing.T) {
	rows := [][2]string{{"0702000000", "томаты свежие или охлажденные"}}
	repo, db := newTestCatalog(t, rows)
	eng := newTestEngine(t, Dependencies{Repository: repo}, rows)

	// The catalog row disappears after the indexes were built.
	_, err := db.Exec(`DELETE FROM catalog_entries`)
	require.NoError(t, err)

	resp, err := eng.Search(context.Background(), "томаты свежие", "ru", 0)
	require.NoError(t, err)

	// Nothing validates, so the candidate is kept and flagged instead of
	// returning an empty answer.
	require.NotNil(t, resp.BestMatch)
	assert.Equal(t, "0702000000", resp.BestMatch.Code)
	require.NotEmpty(t, resp.Diagnostics.Warnings)
	assert.Contains(t, resp.Diagnostics.Warnings[0], "0702000000")
}

func TestSearchEngine_Search_ContextCancelled(t *testing.T) {
	eng := newTestEngine(t, Dependencies{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Search(ctx, "томаты свежие", "ru", 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearchEngine_Search_Deterministic(t *testing.T) {
	first := newTestEngine(t, Dependencies{}, nil)
	second := newTestEngine(t, Dependencies{}, nil)

	a, err := first.Search(context.Background(), "томаты", "ru", 0)
	require.NoError(t, err)
	b, err := second.Search(context.Background(), "томаты", "ru", 0)
	require.NoError(t, err)

	assert.Equal(t, a.Status, b.Status)
	assert.Equal(t, a.Confidence, b.Confidence)
	assert.Equal(t, a.BestMatch, b.BestMatch)
	assert.Equal(t, a.Similar, b.Similar)
}

func TestSearchEngine_KeywordFallback_RanksByMatchedWordCount(t *testing.T) {
	rows := [][2]string{
		{"0702000000", "томаты свежие или охлажденные"},
		{"0707000000", "огурцы и корнишоны свежие"},
		{"0710900000", "смесь овощная томаты и огурцы замороженные"},
	}
	eng := newTestEngine(t, Dependencies{}, rows)

	sq := scoring.NewQuery("томаты огурцы", textproc.LanguageRU)
	cands := eng.keywordSearch(context.Background(), sq)

	require.NotEmpty(t, cands)
	// The mixed-vegetable row matched both words, the others one each.
	assert.Equal(t, "0710900000", cands[0].code)
}

func TestSearchEngine_SegmentFallback_MatchesSegmentVocabulary(t *testing.T) {
	rows := [][2]string{
		{"0702000000", "овощи -> томаты свежие: прочие"},
	}
	eng := newTestEngine(t, Dependencies{}, rows)

	sq := scoring.NewQuery("томаты", textproc.LanguageRU)
	cands := eng.segmentSearch(context.Background(), sq)

	require.NotEmpty(t, cands)
	assert.Equal(t, "0702000000", cands[0].code)
}

func TestSegmentsShareVocabulary(t *testing.T) {
	sq := scoring.NewQuery("томаты", textproc.LanguageRU)

	// Shared surface token.
	assert.True(t, segmentsShareVocabulary(sq, []string{"томаты свежие"}, textproc.LanguageRU))
	// Lemma bridge: томаты reduces to томат.
	assert.True(t, segmentsShareVocabulary(sq, []string{"томат сушеный"}, textproc.LanguageRU))
	assert.False(t, segmentsShareVocabulary(sq, []string{"лошади племенные"}, textproc.LanguageRU))
	assert.False(t, segmentsShareVocabulary(sq, nil, textproc.LanguageRU))
}

func TestReconcileDescription(t *testing.T) {
	long := "томаты свежие или охлажденные для промышленной переработки в закрытом грунте"
	short := "томаты свежие"

	// Snapshot more than twice as long as the authoritative row wins.
	assert.Equal(t, long, reconcileDescription(long, short))
	// Authoritative row wins once it carries comparable detail.
	assert.Equal(t, long, reconcileDescription(short, long))
	// Both short, snapshot longer: keep the snapshot.
	assert.Equal(t, "огурцы свежие", reconcileDescription("огурцы свежие", "огурцы"))
	assert.Equal(t, short, reconcileDescription(short, short))
}
