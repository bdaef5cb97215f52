package engine

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hscode-tools/hscode-engine/internal/catalog"
	"github.com/hscode-tools/hscode-engine/internal/scoring"
	"github.com/hscode-tools/hscode-engine/internal/textproc"
)

// perTermLimit bounds each repository probe in the fallback stages.
const perTermLimit = 20

// categorySearch is the first repository fallback: search by the query's
// key product terms, move rows matching the detected category's code
// prefixes ahead of the rest, then rank by description relevance.
func (e *SearchEngine) categorySearch(ctx context.Context, sq scoring.Query) []candidate {
	entries := e.collectByTerms(ctx, e.keyProductTerms(sq.Text), sq.Text)
	if len(entries) == 0 {
		return nil
	}
	entries = e.prioritizeByCategory(entries, sq.Text)
	cands := make([]candidate, 0, len(entries))
	for _, entry := range entries {
		cands = append(cands, candidate{
			doc:         -1,
			code:        entry.Code,
			description: entry.Description,
			score:       e.descriptionRelevance(sq, entry),
			source:      matchDatabase,
		})
	}
	// Stable, so prefix-prioritized rows stay ahead on equal scores.
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	return e.filterByCategory(cands, sq.Text)
}

// keyProductTerms extracts the words that identify the product itself. When
// the query hits a category keyword table those keywords anchor the search,
// otherwise the whole query is the single term.
func (e *SearchEngine) keyProductTerms(query string) []string {
	name, ok := e.categories.Detect(query)
	if !ok {
		return []string{query}
	}
	fc, ok := e.categories.Category(name)
	if !ok {
		return []string{query}
	}
	var terms []string
	for _, kw := range fc.Keywords {
		if strings.Contains(query, kw) {
			terms = append(terms, kw)
		}
	}
	if len(terms) == 0 {
		return []string{query}
	}
	return terms
}

// collectByTerms unions repository hits for every term, de-duplicated by
// code, falling back to the whole query when the terms alone find nothing.
func (e *SearchEngine) collectByTerms(ctx context.Context, terms []string, whole string) []catalog.Entry {
	seen := make(map[string]bool)
	var out []catalog.Entry
	probe := func(term string) {
		rows, err := e.repo.SearchText(ctx, term, perTermLimit)
		if err != nil {
			e.logger.Warn().Err(err).Str("term", term).Msg("Fallback term search failed")
			return
		}
		for _, row := range rows {
			if !seen[row.Code] {
				seen[row.Code] = true
				out = append(out, row)
			}
		}
	}
	wholeProbed := false
	for _, term := range terms {
		probe(term)
		if term == whole {
			wholeProbed = true
		}
	}
	if len(out) == 0 && !wholeProbed {
		probe(whole)
	}
	return out
}

// prioritizeByCategory moves rows whose code starts with one of the
// detected category's allowed prefixes ahead of the rest, keeping relative
// order inside both groups.
func (e *SearchEngine) prioritizeByCategory(entries []catalog.Entry, query string) []catalog.Entry {
	name, ok := e.categories.Detect(query)
	if !ok {
		return entries
	}
	fc, ok := e.categories.Category(name)
	if !ok || len(fc.Allowed) == 0 {
		return entries
	}
	preferred := make([]catalog.Entry, 0, len(entries))
	rest := make([]catalog.Entry, 0, len(entries))
	for _, entry := range entries {
		if hasAnyPrefix(entry.Code, fc.Allowed) {
			preferred = append(preferred, entry)
		} else {
			rest = append(rest, entry)
		}
	}
	return append(preferred, rest...)
}

func hasAnyPrefix(code string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(code, p) {
			return true
		}
	}
	return false
}

// segmentSearch is the second fallback: a broad repository search where a
// row qualifies only when the query shares vocabulary with one of the
// meaningful segments of its hierarchical description. Generic buckets like
// "прочие" never qualify on their own.
func (e *SearchEngine) segmentSearch(ctx context.Context, sq scoring.Query) []candidate {
	rows, err := e.repo.SearchText(ctx, sq.Text, 100)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Segment fallback search failed")
		return nil
	}
	var cands []candidate
	for _, entry := range rows {
		if len(entry.Code) != 10 {
			continue
		}
		segments := catalog.Segments(entry.Description)
		if !segmentsShareVocabulary(sq, segments, textproc.ParseLanguage(entry.Language)) {
			continue
		}
		cands = append(cands, candidate{
			doc:         -1,
			code:        entry.Code,
			description: entry.Description,
			score:       e.descriptionRelevance(sq, entry),
			source:      matchDatabase,
		})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	return e.filterByCategory(cands, sq.Text)
}

// segmentsShareVocabulary reports whether any query token or lemma appears
// in the segment text.
func segmentsShareVocabulary(sq scoring.Query, segments []string, lang textproc.Language) bool {
	if len(segments) == 0 || len(sq.Tokens) == 0 {
		return false
	}
	words := make(map[string]bool)
	for _, seg := range segments {
		norm := textproc.Normalize(seg)
		for _, tok := range textproc.Tokens(norm) {
			words[tok] = true
		}
		for _, lem := range strings.Fields(textproc.Lemmatize(norm, lang)) {
			words[lem] = true
		}
	}
	for _, tok := range sq.Tokens {
		if words[tok] {
			return true
		}
	}
	for _, lem := range sq.Lemmas {
		if words[lem] {
			return true
		}
	}
	return false
}

// keywordSearch is the last-resort fallback: probe the repository for each
// query word on its own and rank codes by how many words they matched, more
// matches first, ascending code on ties. Relevance is computed per row but
// only reported as confidence, the word count decides the order.
func (e *SearchEngine) keywordSearch(ctx context.Context, sq scoring.Query) []candidate {
	type tally struct {
		entry catalog.Entry
		count int
	}
	counts := make(map[string]*tally)
	probed := false
	for _, word := range sq.Tokens {
		if utf8.RuneCountInString(word) <= 2 {
			continue
		}
		probed = true
		rows, err := e.repo.SearchText(ctx, word, perTermLimit)
		if err != nil {
			e.logger.Warn().Err(err).Str("word", word).Msg("Keyword fallback search failed")
			continue
		}
		for _, entry := range rows {
			if t, ok := counts[entry.Code]; ok {
				t.count++
			} else {
				counts[entry.Code] = &tally{entry: entry, count: 1}
			}
		}
	}
	if !probed || len(counts) == 0 {
		return nil
	}
	tallies := make([]*tally, 0, len(counts))
	for _, t := range counts {
		tallies = append(tallies, t)
	}
	sort.Slice(tallies, func(i, j int) bool {
		if tallies[i].count != tallies[j].count {
			return tallies[i].count > tallies[j].count
		}
		return tallies[i].entry.Code < tallies[j].entry.Code
	})
	if len(tallies) > e.cfg.TopSuggestions {
		tallies = tallies[:e.cfg.TopSuggestions]
	}
	cands := make([]candidate, 0, len(tallies))
	for _, t := range tallies {
		cands = append(cands, candidate{
			doc:         -1,
			code:        t.entry.Code,
			description: t.entry.Description,
			score:       e.descriptionRelevance(sq, t.entry),
			source:      matchDatabase,
		})
	}
	return e.filterByCategory(cands, sq.Text)
}

// descriptionRelevance scores how well a repository row answers the query
// when no retrieval signals exist: partial fuzzy similarity of the
// normalized texts, weighted lemma overlap, and the category adjustment.
func (e *SearchEngine) descriptionRelevance(sq scoring.Query, entry catalog.Entry) float64 {
	norm := textproc.Normalize(entry.Description)
	fuzzy := scoring.PartialRatio(sq.Text, norm)
	lemmas := strings.Fields(textproc.Lemmatize(norm, textproc.ParseLanguage(entry.Language)))
	overlap := scoring.WeightedOverlap(sq.Lemmas, lemmas)
	adj := e.categories.Adjust(sq.Text, entry.Code)
	score := 0.7*fuzzy + 0.3*overlap + adj.Boost - adj.Penalty
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
