// Package semantic provides the dense vector index over catalog description
// embeddings and the builder that fills it through an embedding provider.
package semantic

import "sort"

// Match is one scored document, identified by its position in the catalog
// slice the index was built from. Score is cosine similarity.
type Match struct {
	Doc   int
	Score float64
}

// Index is a read-only nearest-neighbor index.
type Index interface {
	// Search returns up to k documents most similar to the query vector,
	// best first, ties broken by ascending document id.
	Search(query []float32, k int) []Match
	// Len returns the number of indexed documents.
	Len() int
	// Dimension returns the vector width.
	Dimension() int
}

// MemoryIndex is a flat in-memory index using inner-product scan. Vectors are
// unit-normalized at construction, so inner product equals cosine similarity.
// The index is immutable after construction and safe for concurrent reads.
type MemoryIndex struct {
	dimension int
	vectors   [][]float32
}

// NewMemoryIndex builds an index over normalized vectors. Positions with a
// nil or mismatched vector are kept but can never match, so document ids stay
// aligned with the catalog.
func NewMemoryIndex(vectors [][]float32, dimension int) *MemoryIndex {
	normalized := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dimension {
			continue
		}
		normalized[i] = normalizeVector(v)
	}
	return &MemoryIndex{dimension: dimension, vectors: normalized}
}

// Search scans every stored vector. The query is normalized before the scan,
// so callers may pass raw provider output.
func (m *MemoryIndex) Search(query []float32, k int) []Match {
	if k <= 0 || len(query) != m.dimension {
		return nil
	}
	q := normalizeVector(query)

	matches := make([]Match, 0, len(m.vectors))
	for doc, v := range m.vectors {
		if v == nil {
			continue
		}
		score := dot(q, v)
		if score <= 0 {
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

// Len returns the number of indexed documents, including degraded ones.
func (m *MemoryIndex) Len() int { return len(m.vectors) }

// Dimension returns the vector width.
func (m *MemoryIndex) Dimension() int { return m.dimension }

var _ Index = (*MemoryIndex)(nil)
