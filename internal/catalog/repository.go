package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrNotFound is returned when no catalog entry matches a lookup.
var ErrNotFound = errors.New("catalog entry not found")

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Dialect selects the SQL flavor. The full-text stage of SearchText needs
// PostgreSQL; everything else runs on both dialects because each $N
// placeholder appears exactly once and in order, which SQLite binds
// positionally.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Repository handles catalog entry storage and search.
type Repository struct {
	db      DB
	dialect Dialect
}

// NewRepository creates a new catalog repository.
func NewRepository(db DB, dialect Dialect) *Repository {
	if dialect == "" {
		dialect = DialectPostgres
	}
	return &Repository{db: db, dialect: dialect}
}

const entryColumns = "id, code, description, language, created_at, updated_at"

// LoadAll returns the rows worth indexing: codes at six or more digits with
// descriptions long enough to carry wording. Codes come back padded to the
// full 10-digit precision.
func (r *Repository) LoadAll(ctx context.Context) ([]Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM catalog_entries
		WHERE LENGTH(code) >= 6 AND LENGTH(description) > 10
		ORDER BY code
	`
	entries, err := r.queryEntries(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	for i := range entries {
		entries[i].Code = PadCode(entries[i].Code)
	}
	return entries, nil
}

// LookupByCode retrieves the entry with exactly the given code.
func (r *Repository) LookupByCode(ctx context.Context, code string) (*Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM catalog_entries
		WHERE code = $1
	`
	entry := &Entry{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&entry.ID, &entry.Code, &entry.Description, &entry.Language,
		&entry.CreatedAt, &entry.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return entry, err
}

// SearchByPrefix returns entries whose code starts with the given digits,
// shortest codes first so chapter headings come before their leaf rows.
func (r *Repository) SearchByPrefix(ctx context.Context, prefix string, limit int) ([]Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM catalog_entries
		WHERE code LIKE $1 || '%' AND code != $2
		ORDER BY LENGTH(code) ASC, code ASC
		LIMIT $3
	`
	return r.queryEntries(ctx, query, prefix, prefix, limit)
}

var numericQuery = regexp.MustCompile(`^\d{2,10}$`)

// SearchText runs the layered description search. Numeric queries try exact
// and prefix code matches first; text queries go through full-text search,
// then AND over all words, then OR, then a per-word union. The first layer
// with results wins.
func (r *Repository) SearchText(ctx context.Context, query string, limit int) ([]Entry, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || limit <= 0 {
		return nil, nil
	}

	if numericQuery.MatchString(q) {
		exact, err := r.queryEntries(ctx, `
			SELECT `+entryColumns+`
			FROM catalog_entries
			WHERE code = $1
			LIMIT $2
		`, q, limit)
		if err != nil {
			return nil, fmt.Errorf("search exact code: %w", err)
		}
		if valid := validEntries(exact); len(valid) > 0 {
			return valid, nil
		}

		prefixed, err := r.SearchByPrefix(ctx, q, limit)
		if err != nil {
			return nil, fmt.Errorf("search code prefix: %w", err)
		}
		if valid := validEntries(prefixed); len(valid) > 0 {
			return valid, nil
		}
	}

	if r.dialect == DialectPostgres {
		ranked, err := r.queryEntries(ctx, `
			SELECT `+entryColumns+`
			FROM catalog_entries
			WHERE to_tsvector('russian', description) @@ plainto_tsquery('russian', $1)
			ORDER BY ts_rank(to_tsvector('russian', description),
				plainto_tsquery('russian', $2)) DESC
			LIMIT $3
		`, q, q, limit)
		if err != nil {
			return nil, fmt.Errorf("full-text search: %w", err)
		}
		if valid := validEntries(ranked); len(valid) > 0 {
			return valid, nil
		}
	}

	words := strings.Fields(q)
	if len(words) == 0 {
		return nil, nil
	}

	matched, err := r.searchLike(ctx, words, " AND ", limit)
	if err != nil {
		return nil, fmt.Errorf("partial search: %w", err)
	}
	if len(matched) == 0 && len(words) > 1 {
		matched, err = r.searchLike(ctx, words, " OR ", limit)
		if err != nil {
			return nil, fmt.Errorf("partial search: %w", err)
		}
	}
	if len(matched) == 0 && len(words) > 1 {
		return r.searchPerWord(ctx, words, limit)
	}
	return matched, nil
}

// searchLike matches every (or any) word as a substring of the description,
// shortest descriptions first.
func (r *Repository) searchLike(ctx context.Context, words []string, joiner string, limit int) ([]Entry, error) {
	clauses := make([]string, len(words))
	args := make([]interface{}, 0, len(words)+1)
	for i, w := range words {
		clauses[i] = fmt.Sprintf("LOWER(description) LIKE '%%' || $%d || '%%'", i+1)
		args = append(args, w)
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT %s
		FROM catalog_entries
		WHERE %s
		ORDER BY LENGTH(description) ASC
		LIMIT $%d
	`, entryColumns, strings.Join(clauses, joiner), len(words)+1)

	entries, err := r.queryEntries(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return validEntries(entries), nil
}

// searchPerWord queries each word on its own and merges the results,
// keeping the first hit per code.
func (r *Repository) searchPerWord(ctx context.Context, words []string, limit int) ([]Entry, error) {
	seen := make(map[string]bool)
	var combined []Entry
	for _, w := range words {
		entries, err := r.searchLike(ctx, []string{w}, " AND ", limit)
		if err != nil {
			return nil, fmt.Errorf("per-word search: %w", err)
		}
		for _, e := range entries {
			if !seen[e.Code] {
				seen[e.Code] = true
				combined = append(combined, e)
			}
		}
	}
	if len(combined) > limit {
		combined = combined[:limit]
	}
	return combined, nil
}

// Upsert inserts or refreshes one entry keyed by code.
func (r *Repository) Upsert(ctx context.Context, code, description, language string) error {
	if language == "" {
		language = "ru"
	}
	now := time.Now()
	query := `
		INSERT INTO catalog_entries (code, description, language, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO UPDATE SET
			description = excluded.description,
			language = excluded.language,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, code, description, language, now, now)
	if err != nil {
		return fmt.Errorf("upsert catalog entry %s: %w", code, err)
	}
	return nil
}

// Count returns the number of catalog entries.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM catalog_entries`).Scan(&n)
	return n, err
}

func (r *Repository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		err := rows.Scan(&e.ID, &e.Code, &e.Description, &e.Language, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// validEntries drops rows whose code is not at a published precision.
func validEntries(entries []Entry) []Entry {
	valid := entries[:0]
	for _, e := range entries {
		if ValidCode(e.Code) {
			valid = append(valid, e)
		}
	}
	return valid
}
