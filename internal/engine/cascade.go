package engine

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hscode-tools/hscode-engine/internal/catalog"
	"github.com/hscode-tools/hscode-engine/internal/scoring"
	"github.com/hscode-tools/hscode-engine/internal/semantic"
	"github.com/hscode-tools/hscode-engine/internal/textproc"
)

// stageResult is what one cascade stage hands back: ranked candidates, the
// stage name for diagnostics, the candidate count before validation and
// filtering, and any warnings worth surfacing.
type stageResult struct {
	stage    string
	cands    []candidate
	total    int
	warnings []string
}

// runCascade tries each retrieval stage in order and stops at the first one
// that produces candidates above the suggestion floor. An empty result means
// nothing matched anywhere.
func (e *SearchEngine) runCascade(ctx context.Context, idx *indexSet, raw string, lang textproc.Language, variants []string) (stageResult, error) {
	// A ten-digit code query resolves authoritatively, no ranking needed.
	if code := catalog.NormalizeCode(raw); len(code) == 10 && catalog.ValidCode(code) {
		entry, err := e.repo.LookupByCode(ctx, code)
		switch {
		case err == nil:
			return stageResult{
				stage: sourceExact,
				cands: []candidate{{
					code:        entry.Code,
					description: entry.Description,
					score:       1.0,
					source:      matchExactCode,
				}},
				total: 1,
			}, nil
		case !errors.Is(err, catalog.ErrNotFound):
			e.logger.Warn().Err(err).Str("code", code).Msg("Code lookup failed")
		}
	}

	sq := scoring.NewQuery(raw, lang)

	res, err := e.hybridStage(ctx, idx, sq, lang, variants)
	if err != nil {
		return stageResult{}, err
	}
	if e.worthReturning(res.cands) {
		return res, nil
	}

	if cands := e.categorySearch(ctx, sq); e.worthReturning(cands) {
		return stageResult{stage: sourceCategorySearch, cands: cands, total: len(cands)}, nil
	}
	if cands := e.segmentSearch(ctx, sq); e.worthReturning(cands) {
		return stageResult{stage: sourceSegmentFallback, cands: cands, total: len(cands)}, nil
	}
	if cands := e.keywordSearch(ctx, sq); e.worthReturning(cands) {
		return stageResult{stage: sourceKeywordFallback, cands: cands, total: len(cands)}, nil
	}
	return stageResult{stage: sourceNone}, ctx.Err()
}

// worthReturning reports whether any candidate cleared the suggestion floor.
// Stages whose best row falls below it are treated as empty so the cascade
// keeps digging.
func (e *SearchEngine) worthReturning(cands []candidate) bool {
	for _, c := range cands {
		if c.score >= e.cfg.SuggestionFloor {
			return true
		}
	}
	return false
}

// hybridStage runs exact phrase matching plus fused lexical and semantic
// retrieval for every query variant, merging candidates across variants by
// code with the best score winning, then validates and category-filters the
// leaders.
func (e *SearchEngine) hybridStage(ctx context.Context, idx *indexSet, sq scoring.Query, lang textproc.Language, variants []string) (stageResult, error) {
	original := variants[len(variants)-1]
	byCode := make(map[string]candidate)
	for _, variant := range variants {
		if err := ctx.Err(); err != nil {
			return stageResult{}, err
		}
		vq := scoring.NewQuery(variant, lang)
		if !textproc.ContainsValidWord(vq.Text) {
			continue
		}

		// Verbatim hits: the normalized variant appears inside the
		// normalized description. Earlier positions score higher.
		for doc, desc := range idx.normDescs {
			pos := strings.Index(desc, vq.Text)
			if pos < 0 {
				continue
			}
			total := utf8.RuneCountInString(desc)
			if total == 0 {
				continue
			}
			prefix := utf8.RuneCountInString(desc[:pos])
			positionScore := 1.0 - float64(prefix)/float64(total)*0.3
			score := 0.9 + positionScore*0.1
			if score > 1 {
				score = 1
			}
			mergeCandidate(byCode, candidate{
				doc:         doc,
				code:        idx.entries[doc].Code,
				description: idx.entries[doc].Description,
				score:       score,
				source:      matchExactPhrase,
			})
		}

		tasks := e.retrieve(ctx, idx, vq)
		for _, c := range e.scoreTasks(ctx, idx, vq, variant == original, tasks) {
			mergeCandidate(byCode, c)
		}
	}
	if err := ctx.Err(); err != nil {
		return stageResult{}, err
	}
	if len(byCode) == 0 {
		return stageResult{stage: sourceHybrid}, nil
	}

	cands := make([]candidate, 0, len(byCode))
	for _, c := range byCode {
		cands = append(cands, c)
	}
	sortCandidates(cands)
	total := len(cands)
	if len(cands) > e.cfg.ValidateTop {
		cands = cands[:e.cfg.ValidateTop]
	}
	cands, warnings := e.validateAndEnrich(ctx, cands)
	cands = e.filterByCategory(cands, sq.Text)
	return stageResult{stage: sourceHybrid, cands: cands, total: total, warnings: warnings}, nil
}

// retrieve gathers lexical and semantic hits for one variant. An embedding
// provider failure downgrades the variant to lexical-only retrieval.
func (e *SearchEngine) retrieve(ctx context.Context, idx *indexSet, vq scoring.Query) []scoreTask {
	lemmaQuery := strings.Join(vq.Lemmas, " ")
	if lemmaQuery == "" {
		return nil
	}
	lexHits := idx.lexical.Search(lemmaQuery, e.cfg.LexicalTopK)

	var semHits []semantic.Match
	if vec, err := e.embedder.EmbedSingle(ctx, lemmaQuery); err != nil {
		e.logger.Warn().Err(err).Msg("Query embedding failed, semantic retrieval skipped")
	} else {
		k := e.cfg.SemanticTopK
		if n := idx.semantic.Len(); k > n {
			k = n
		}
		semHits = idx.semantic.Search(vec, k)
	}

	semScore := make(map[int]float64, len(semHits))
	for _, h := range semHits {
		semScore[h.Doc] = h.Score
	}
	tasks := make([]scoreTask, 0, len(lexHits)+len(semHits))
	seen := make(map[int]bool, len(lexHits))
	for _, h := range lexHits {
		tasks = append(tasks, scoreTask{doc: h.Doc, semantic: semScore[h.Doc], lexical: true})
		seen[h.Doc] = true
	}
	for _, h := range semHits {
		if !seen[h.Doc] {
			tasks = append(tasks, scoreTask{doc: h.Doc, semantic: h.Score})
		}
	}
	return tasks
}

// mergeCandidate keeps the best score per code across variants and
// retrieval paths.
func mergeCandidate(byCode map[string]candidate, c candidate) {
	if prev, ok := byCode[c.code]; ok && prev.score >= c.score {
		return
	}
	byCode[c.code] = c
}

// sortCandidates orders by score descending with ascending code as the tie
// break, so equal scores rank deterministically.
func sortCandidates(cands []candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].code < cands[j].code
	})
}
