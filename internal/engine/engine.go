package engine

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/hscode-tools/hscode-engine/internal/audit"
	"github.com/hscode-tools/hscode-engine/internal/cache"
	"github.com/hscode-tools/hscode-engine/internal/catalog"
	"github.com/hscode-tools/hscode-engine/internal/category"
	"github.com/hscode-tools/hscode-engine/internal/embedding"
	"github.com/hscode-tools/hscode-engine/internal/expansion"
	"github.com/hscode-tools/hscode-engine/internal/observability"
	"github.com/hscode-tools/hscode-engine/internal/scoring"
)

// Config tunes the cascade. Zero values take the published defaults, so an
// empty Config is fully usable.
type Config struct {
	// LexicalTopK bounds the lexical retrieval per query variant.
	LexicalTopK int
	// SemanticTopK bounds the semantic retrieval per query variant.
	SemanticTopK int
	// TopSimilar caps the runner-up list for found statuses.
	TopSimilar int
	// TopSuggestions caps the suggestion list for weak results.
	TopSuggestions int
	// SimilarFloor is the minimum score for the runner-up list.
	SimilarFloor float64
	// BestMatchFloor separates found statuses from suggestions.
	BestMatchFloor float64
	// SuggestionFloor is the minimum score worth suggesting at all.
	SuggestionFloor float64
	// HighConfidence and MediumConfidence are the status band edges.
	HighConfidence   float64
	MediumConfidence float64
	// ValidateTop bounds how many leading candidates are re-checked
	// against the catalog.
	ValidateTop int
	// Workers sizes the candidate scoring pool.
	Workers int
	// CacheTTL is the lifetime of cached responses.
	CacheTTL time.Duration
	// AuditSource tags audit rows with the calling surface.
	AuditSource string
}

func (c Config) withDefaults() Config {
	if c.LexicalTopK <= 0 {
		c.LexicalTopK = 100
	}
	if c.SemanticTopK <= 0 {
		c.SemanticTopK = 200
	}
	if c.TopSimilar <= 0 {
		c.TopSimilar = 4
	}
	if c.TopSuggestions <= 0 {
		c.TopSuggestions = 6
	}
	if c.SimilarFloor <= 0 {
		c.SimilarFloor = 0.3
	}
	if c.BestMatchFloor <= 0 {
		c.BestMatchFloor = 0.55
	}
	if c.SuggestionFloor <= 0 {
		c.SuggestionFloor = 0.10
	}
	if c.HighConfidence <= 0 {
		c.HighConfidence = 0.85
	}
	if c.MediumConfidence <= 0 {
		c.MediumConfidence = 0.70
	}
	if c.ValidateTop <= 0 {
		c.ValidateTop = 20
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 24 * time.Hour
	}
	if c.AuditSource == "" {
		c.AuditSource = "api"
	}
	return c
}

// Dependencies lists the collaborators a SearchEngine is wired with.
// Repository and Embedder are required. Cache and Audit are optional and
// disable their feature when nil; the remaining fields default to the
// built-in implementations.
type Dependencies struct {
	Logger     *observability.Logger
	Repository *catalog.Repository
	Embedder   embedding.Embedder
	Cache      cache.Client
	Audit      *audit.Recorder
	Categories *category.Classifier
	Expander   *expansion.Expander
	Scorer     *scoring.Scorer
}

// SearchEngine owns the retrieval indexes and runs the cascade. Indexes are
// swapped atomically on rebuild, so Search stays lock-free and in-flight
// requests finish on the set they started with.
type SearchEngine struct {
	cfg        Config
	logger     *observability.Logger
	repo       *catalog.Repository
	embedder   embedding.Embedder
	categories *category.Classifier
	expander   *expansion.Expander
	scorer     *scoring.Scorer
	cache      *resultCache
	audit      *audit.Recorder

	indexes atomic.Pointer[indexSet]
}

// New assembles a SearchEngine. Call BuildIndexes before the first Search.
func New(deps Dependencies, cfg Config) (*SearchEngine, error) {
	if deps.Repository == nil {
		return nil, errors.New("engine: repository is required")
	}
	if deps.Embedder == nil {
		return nil, errors.New("engine: embedder is required")
	}
	cfg = cfg.withDefaults()
	logger := deps.Logger
	if logger == nil {
		logger = observability.DefaultLogger()
	}
	categories := deps.Categories
	if categories == nil {
		categories = category.New()
	}
	expander := deps.Expander
	if expander == nil {
		expander = expansion.New()
	}
	scorer := deps.Scorer
	if scorer == nil {
		scorer = scoring.New()
	}
	return &SearchEngine{
		cfg:        cfg,
		logger:     logger,
		repo:       deps.Repository,
		embedder:   deps.Embedder,
		categories: categories,
		expander:   expander,
		scorer:     scorer,
		cache:      newResultCache(deps.Cache, cfg.CacheTTL, logger),
		audit:      deps.Audit,
	}, nil
}

// Ready reports whether the retrieval indexes have been built.
func (e *SearchEngine) Ready() bool {
	return e.indexes.Load() != nil
}

// IndexStats describes the current index set.
type IndexStats struct {
	Entries    int       `json:"entries"`
	Vocabulary int       `json:"vocabulary"`
	Vectors    int       `json:"vectors"`
	Degraded   int       `json:"degraded"` // entries indexed without a real embedding
	Dimension  int       `json:"dimension"`
	BuildMS    int64     `json:"build_ms"`
	BuiltAt    time.Time `json:"built_at"`
}

// Stats returns the stats of the active index set, or ErrIndexNotReady
// before the first build.
func (e *SearchEngine) Stats() (IndexStats, error) {
	idx := e.indexes.Load()
	if idx == nil {
		return IndexStats{}, ErrIndexNotReady
	}
	return idx.stats, nil
}

// CacheStats reports result cache effectiveness counters.
func (e *SearchEngine) CacheStats() CacheStats {
	return e.cache.stats()
}

// Close stops the background cache writer. It does not close the injected
// cache client or database; their owner does.
func (e *SearchEngine) Close() {
	e.cache.close()
}
