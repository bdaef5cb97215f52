// Package lexical implements a sparse TF-IDF index over catalog descriptions.
//
// The index is built once from lemmatized, stopword-filtered description
// strings and is immutable afterwards. Queries are scored by cosine
// similarity between L2-normalized TF-IDF vectors, so repeated searches over
// the same index return identical rankings.
package lexical

import (
	"math"
	"sort"
	"strings"
)

// Config bounds the vocabulary and the result set.
type Config struct {
	// MinNGram and MaxNGram bound the word n-gram lengths added to the
	// vocabulary.
	MinNGram int
	MaxNGram int
	// MinDocFreq drops terms seen in fewer documents.
	MinDocFreq int
	// MaxDocRatio drops terms seen in more than this share of documents.
	MaxDocRatio float64
	// MaxVocabulary caps the vocabulary, keeping the most frequent terms.
	MaxVocabulary int
	// MinSimilarity is the cosine floor below which matches are discarded.
	MinSimilarity float64
	// TopK is the default result count when Search is called with k <= 0.
	TopK int
}

func (c Config) withDefaults() Config {
	if c.MinNGram <= 0 {
		c.MinNGram = 1
	}
	if c.MaxNGram < c.MinNGram {
		c.MaxNGram = 3
	}
	if c.MinDocFreq <= 0 {
		c.MinDocFreq = 2
	}
	if c.MaxDocRatio <= 0 || c.MaxDocRatio > 1 {
		c.MaxDocRatio = 0.95
	}
	if c.MaxVocabulary <= 0 {
		c.MaxVocabulary = 10000
	}
	if c.MinSimilarity <= 0 {
		c.MinSimilarity = 0.1
	}
	if c.TopK <= 0 {
		c.TopK = 100
	}
	return c
}

// Match is one scored document, identified by its position in the slice the
// index was built from.
type Match struct {
	Doc   int
	Score float64
}

type posting struct {
	doc    int
	weight float64
}

// Index is a read-only TF-IDF index.
type Index struct {
	cfg      Config
	vocab    map[string]int
	idf      []float64
	postings [][]posting
	docCount int
}

// NewIndex builds the index over pre-lemmatized documents. Document ids in
// Match results are positions in docs. Empty documents keep their position
// but never match.
func NewIndex(docs []string, cfg Config) *Index {
	cfg = cfg.withDefaults()

	idx := &Index{
		cfg:      cfg,
		vocab:    make(map[string]int),
		docCount: len(docs),
	}
	if len(docs) == 0 {
		return idx
	}

	// First pass: per-document term counts plus document and collection
	// frequencies.
	docTerms := make([]map[string]int, len(docs))
	docFreq := make(map[string]int)
	collFreq := make(map[string]int)
	for i, doc := range docs {
		counts := termCounts(doc, cfg.MinNGram, cfg.MaxNGram)
		docTerms[i] = counts
		for term, n := range counts {
			docFreq[term]++
			collFreq[term] += n
		}
	}

	// Vocabulary selection: frequency bounds, then the cap. Candidates are
	// ordered by collection frequency with a lexicographic tie-break so the
	// same corpus always yields the same vocabulary.
	maxDF := int(cfg.MaxDocRatio * float64(len(docs)))
	if maxDF < 1 {
		maxDF = 1
	}
	candidates := make([]string, 0, len(docFreq))
	for term, df := range docFreq {
		if df < cfg.MinDocFreq || df > maxDF {
			continue
		}
		candidates = append(candidates, term)
	}
	sort.Slice(candidates, func(a, b int) bool {
		if collFreq[candidates[a]] != collFreq[candidates[b]] {
			return collFreq[candidates[a]] > collFreq[candidates[b]]
		}
		return candidates[a] < candidates[b]
	})
	if len(candidates) > cfg.MaxVocabulary {
		candidates = candidates[:cfg.MaxVocabulary]
	}
	sort.Strings(candidates)
	for col, term := range candidates {
		idx.vocab[term] = col
	}

	// Smoothed IDF, matching the classic vectorizer formula.
	idx.idf = make([]float64, len(candidates))
	for col, term := range candidates {
		idx.idf[col] = math.Log(float64(1+len(docs))/float64(1+docFreq[term])) + 1
	}

	// Second pass: L2-normalized rows stored as postings per column.
	idx.postings = make([][]posting, len(candidates))
	for docID, counts := range docTerms {
		row := idx.vectorize(counts)
		for _, cw := range row {
			idx.postings[cw.col] = append(idx.postings[cw.col], posting{doc: docID, weight: cw.weight})
		}
	}
	return idx
}

type colWeight struct {
	col    int
	weight float64
}

// vectorize maps term counts onto vocabulary columns and L2-normalizes the
// result. Columns come back sorted so downstream accumulation order is fixed
// and scores are reproducible.
func (i *Index) vectorize(counts map[string]int) []colWeight {
	row := make([]colWeight, 0, len(counts))
	for term, n := range counts {
		col, ok := i.vocab[term]
		if !ok {
			continue
		}
		row = append(row, colWeight{col: col, weight: float64(n) * i.idf[col]})
	}
	sort.Slice(row, func(a, b int) bool { return row[a].col < row[b].col })

	var norm float64
	for _, cw := range row {
		norm += cw.weight * cw.weight
	}
	if norm == 0 {
		return nil
	}
	norm = math.Sqrt(norm)
	for j := range row {
		row[j].weight /= norm
	}
	return row
}

// Search scores the pre-lemmatized query against every document and returns
// up to k matches at or above the similarity floor, best first. Ties are
// broken by ascending document id.
func (i *Index) Search(query string, k int) []Match {
	if k <= 0 {
		k = i.cfg.TopK
	}
	queryVec := i.vectorize(termCounts(query, i.cfg.MinNGram, i.cfg.MaxNGram))
	if len(queryVec) == 0 {
		return nil
	}

	scores := make(map[int]float64)
	for _, qw := range queryVec {
		for _, p := range i.postings[qw.col] {
			scores[p.doc] += qw.weight * p.weight
		}
	}

	matches := make([]Match, 0, len(scores))
	for doc, score := range scores {
		if score < i.cfg.MinSimilarity {
			continue
		}
		matches = append(matches, Match{Doc: doc, Score: score})
	}
	sort.Slice(matches, func(a, b int) bool {
		if matches[a].Score != matches[b].Score {
			return matches[a].Score > matches[b].Score
		}
		return matches[a].Doc < matches[b].Doc
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// Len returns the number of indexed documents.
func (i *Index) Len() int { return i.docCount }

// VocabularySize returns the number of live vocabulary terms.
func (i *Index) VocabularySize() int { return len(i.vocab) }

// termCounts tokenizes on whitespace and counts word n-grams of lengths
// [minN, maxN].
func termCounts(s string, minN, maxN int) map[string]int {
	tokens := strings.Fields(s)
	counts := make(map[string]int)
	for n := minN; n <= maxN; n++ {
		if n > len(tokens) {
			break
		}
		for i := 0; i+n <= len(tokens); i++ {
			counts[strings.Join(tokens[i:i+n], " ")]++
		}
	}
	return counts
}
