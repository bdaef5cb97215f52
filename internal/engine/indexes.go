package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hscode-tools/hscode-engine/internal/catalog"
	"github.com/hscode-tools/hscode-engine/internal/lexical"
	"github.com/hscode-tools/hscode-engine/internal/semantic"
	"github.com/hscode-tools/hscode-engine/internal/textproc"
)

// indexSet is one immutable generation of the retrieval indexes. The slices
// are parallel: normDescs[i] and lemmas[i] derive from entries[i], and both
// retrievers report document ids that index into entries.
type indexSet struct {
	entries   []catalog.Entry
	normDescs []string   // normalized descriptions, for phrase matching
	lemmas    [][]string // lemmatized description tokens, for overlap scoring
	lexical   *lexical.Index
	semantic  semantic.Index
	stats     IndexStats
}

// BuildIndexes loads the catalog, derives the text forms every stage works
// on, and builds a fresh lexical and semantic index generation, swapping it
// in atomically. In-flight searches finish on the previous set. A rebuild
// also drops every cached response, which may describe entries that no
// longer exist.
func (e *SearchEngine) BuildIndexes(ctx context.Context) (IndexStats, error) {
	start := time.Now()
	entries, err := e.repo.LoadAll(ctx)
	if err != nil {
		return IndexStats{}, fmt.Errorf("load catalog: %w", err)
	}
	if len(entries) == 0 {
		e.logger.Warn().Msg("Catalog is empty, every search will fall through to not_found")
	}

	normDescs := make([]string, len(entries))
	lemmas := make([][]string, len(entries))
	lemmaDocs := make([]string, len(entries))
	for i, entry := range entries {
		lang := textproc.ParseLanguage(entry.Language)
		norm, _, lemma := textproc.Pipeline(entry.Description, lang)
		normDescs[i] = norm
		lemmas[i] = strings.Fields(lemma)
		lemmaDocs[i] = lemma
	}

	lex := lexical.NewIndex(lemmaDocs, lexical.Config{TopK: e.cfg.LexicalTopK})
	sem, buildStats, err := semantic.NewBuilder(e.embedder, e.logger, semantic.BuilderConfig{}).Build(ctx, lemmaDocs)
	if err != nil {
		return IndexStats{}, fmt.Errorf("build semantic index: %w", err)
	}

	set := &indexSet{
		entries:   entries,
		normDescs: normDescs,
		lemmas:    lemmas,
		lexical:   lex,
		semantic:  sem,
		stats: IndexStats{
			Entries:    len(entries),
			Vocabulary: lex.VocabularySize(),
			Vectors:    sem.Len(),
			Degraded:   buildStats.Degraded,
			Dimension:  buildStats.Dimension,
			BuildMS:    time.Since(start).Milliseconds(),
			BuiltAt:    time.Now().UTC(),
		},
	}
	if previous := e.indexes.Swap(set); previous != nil {
		e.cache.invalidate(ctx)
	}

	e.logger.Info().
		Int("entries", set.stats.Entries).
		Int("vocabulary", set.stats.Vocabulary).
		Int("vectors", set.stats.Vectors).
		Int("degraded", set.stats.Degraded).
		Int64("build_ms", set.stats.BuildMS).
		Msg("Search indexes built")
	return set.stats, nil
}
