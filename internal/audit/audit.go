// Package audit persists search outcomes for later catalog curation. Queries
// that matched nothing feed the dictionary backlog, successful lookups build
// the relevance history.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hscode-tools/hscode-engine/internal/catalog"
	"github.com/hscode-tools/hscode-engine/internal/observability"
)

// RankedCode is one scored catalog entry inside a persisted search record.
type RankedCode struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// SearchRecord captures a completed classification for the audit trail.
type SearchRecord struct {
	TraceID    string
	Query      string
	Language   string
	Status     string
	Main       *RankedCode
	Similar    []RankedCode
	TotalFound int
	Duration   time.Duration
}

// Recorder writes audit rows through the shared database handle. All methods
// are safe on a nil receiver, and persistence failures are logged rather than
// returned: an audit hiccup must never fail the search that triggered it.
type Recorder struct {
	db      catalog.DB
	dialect catalog.Dialect
	logger  *observability.Logger
}

// NewRecorder creates a recorder bound to the given database.
func NewRecorder(db catalog.DB, dialect catalog.Dialect, logger *observability.Logger) *Recorder {
	if logger == nil {
		logger = observability.DefaultLogger()
	}
	if dialect == "" {
		dialect = catalog.DialectPostgres
	}
	return &Recorder{db: db, dialect: dialect, logger: logger}
}

// EnsureSchema creates the audit tables when they do not exist yet. Intended
// for SQLite development databases; production Postgres schemas come from
// migrations.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return nil
	}

	idColumn := "id SERIAL PRIMARY KEY"
	confidenceType := "DOUBLE PRECISION"
	if r.dialect == catalog.DialectSQLite {
		idColumn = "id INTEGER PRIMARY KEY AUTOINCREMENT"
		confidenceType = "REAL"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS not_found_queries (
			` + idColumn + `,
			trace_id TEXT NOT NULL,
			query TEXT NOT NULL,
			language TEXT NOT NULL DEFAULT 'ru',
			search_source TEXT NOT NULL DEFAULT 'api',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_not_found_queries_created_at
			ON not_found_queries (created_at)`,
		`CREATE TABLE IF NOT EXISTS search_results (
			` + idColumn + `,
			trace_id TEXT NOT NULL,
			query TEXT NOT NULL,
			language TEXT NOT NULL DEFAULT 'ru',
			status TEXT NOT NULL,
			main_code TEXT,
			main_description TEXT,
			main_confidence ` + confidenceType + `,
			similar TEXT,
			total_found INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_search_results_created_at
			ON search_results (created_at)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// LogNotFound records a query that produced no classification.
func (r *Recorder) LogNotFound(ctx context.Context, query, language, source string) {
	if r == nil || r.db == nil {
		return
	}
	if language == "" {
		language = "ru"
	}
	if source == "" {
		source = "api"
	}

	const insertNotFound = `
		INSERT INTO not_found_queries (trace_id, query, language, search_source, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, insertNotFound,
		r.traceID(ctx), query, language, source, time.Now().UTC())
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("query", query).
			Msg("Failed to record not-found query")
		return
	}

	r.logger.Debug().
		Str("query", query).
		Str("language", language).
		Msg("Recorded not-found query")
}

// SaveSearchResult records a completed classification, keeping the main match
// and up to three runners-up.
func (r *Recorder) SaveSearchResult(ctx context.Context, record SearchRecord) {
	if r == nil || r.db == nil {
		return
	}
	if record.Language == "" {
		record.Language = "ru"
	}

	var mainCode, mainDescription interface{}
	var mainConfidence interface{}
	if record.Main != nil {
		mainCode = record.Main.Code
		mainDescription = record.Main.Description
		mainConfidence = record.Main.Confidence
	}

	var similar interface{}
	if len(record.Similar) > 0 {
		top := record.Similar
		if len(top) > 3 {
			top = top[:3]
		}
		if data, err := json.Marshal(top); err == nil {
			similar = string(data)
		}
	}

	const insertSearchResult = `
		INSERT INTO search_results (
			trace_id, query, language, status,
			main_code, main_description, main_confidence,
			similar, total_found, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	traceID := record.TraceID
	if traceID == "" {
		traceID = r.traceID(ctx)
	}

	_, err := r.db.ExecContext(ctx, insertSearchResult,
		traceID, record.Query, record.Language, record.Status,
		mainCode, mainDescription, mainConfidence,
		similar, record.TotalFound, record.Duration.Milliseconds(), time.Now().UTC())
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("query", record.Query).
			Str("status", record.Status).
			Msg("Failed to record search result")
		return
	}

	r.logger.Debug().
		Str("query", record.Query).
		Str("status", record.Status).
		Int("total_found", record.TotalFound).
		Msg("Recorded search result")
}

func (r *Recorder) traceID(ctx context.Context) string {
	if id := observability.TraceIDFromContext(ctx); id != "" {
		return id
	}
	return observability.NewTraceID()
}
