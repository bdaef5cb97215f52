package semantic

import (
	"context"
	"fmt"
	"time"

	"github.com/hscode-tools/hscode-engine/internal/embedding"
	"github.com/hscode-tools/hscode-engine/internal/observability"
)

// Builder embeds catalog descriptions and assembles a MemoryIndex.
type Builder struct {
	embedder  embedding.Embedder
	logger    *observability.Logger
	batchSize int
}

// BuilderConfig holds index build settings.
type BuilderConfig struct {
	BatchSize int // Default: 64 texts per provider call
}

// BuildStats reports what the build produced.
type BuildStats struct {
	Items     int
	Degraded  int // items indexed with a zero vector after embedding failed
	Dimension int
	Elapsed   time.Duration
}

// NewBuilder creates an index builder.
func NewBuilder(embedder embedding.Embedder, logger *observability.Logger, cfg BuilderConfig) *Builder {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if logger == nil {
		logger = observability.DefaultLogger()
	}
	return &Builder{embedder: embedder, logger: logger, batchSize: cfg.BatchSize}
}

// Build embeds texts in batches. A failed batch falls back to one call per
// item; an item that still fails is indexed as a zero vector and reported in
// the stats rather than failing the build. Only context cancellation aborts.
func (b *Builder) Build(ctx context.Context, texts []string) (*MemoryIndex, BuildStats, error) {
	start := time.Now()
	dimension := b.embedder.Dimension()
	vectors := make([][]float32, len(texts))
	degraded := 0

	for i := 0; i < len(texts); i += b.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, BuildStats{}, fmt.Errorf("index build aborted at item %d: %w", i, err)
		}
		end := i + b.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[i:end]

		batchVectors, err := b.embedder.Embed(ctx, batch)
		if err == nil {
			copy(vectors[i:end], batchVectors)
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, BuildStats{}, fmt.Errorf("index build aborted at item %d: %w", i, ctxErr)
		}

		b.logger.Warn().
			Int("batch_start", i).
			Int("batch_size", len(batch)).
			Err(err).
			Msg("Batch embedding failed, retrying items one by one")

		for j, text := range batch {
			vec, itemErr := b.embedder.EmbedSingle(ctx, text)
			if itemErr != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, BuildStats{}, fmt.Errorf("index build aborted at item %d: %w", i+j, ctxErr)
				}
				degraded++
				b.logger.Warn().
					Int("item", i+j).
					Err(itemErr).
					Msg("Embedding failed, indexing item with zero vector")
				vec = make([]float32, dimension)
			}
			vectors[i+j] = vec
		}
	}

	// The provider may correct its dimension from live responses; trust the
	// widest successful vector over the configured value.
	for _, v := range vectors {
		if len(v) > 0 && len(v) != dimension && !isZero(v) {
			dimension = len(v)
			break
		}
	}
	// Re-pad degraded slots if the live dimension differs.
	for i, v := range vectors {
		if len(v) != dimension {
			vectors[i] = make([]float32, dimension)
		}
	}

	stats := BuildStats{
		Items:     len(texts),
		Degraded:  degraded,
		Dimension: dimension,
		Elapsed:   time.Since(start),
	}
	b.logger.Info().
		Int("items", stats.Items).
		Int("degraded", stats.Degraded).
		Int("dimension", stats.Dimension).
		Dur("elapsed", stats.Elapsed).
		Msg("Semantic index built")

	return NewMemoryIndex(vectors, dimension), stats, nil
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
