package engine

import (
	"context"
	"sync"

	"github.com/hscode-tools/hscode-engine/internal/scoring"
)

// scoreTask is one retrieved document awaiting fusion scoring.
type scoreTask struct {
	doc      int     // document id in the index set
	semantic float64 // cosine similarity, zero when unavailable
	lexical  bool    // retrieved by the lexical index
}

// candidate is a ranked row flowing through the cascade.
type candidate struct {
	doc         int
	code        string
	description string
	score       float64
	source      string
	warning     string
}

// scoreTasks fans candidate scoring out over a bounded worker pool and
// returns one scored candidate per task. Order is not preserved; callers
// sort. On cancellation the candidates scored so far are returned.
func (e *SearchEngine) scoreTasks(ctx context.Context, idx *indexSet, q scoring.Query, original bool, tasks []scoreTask) []candidate {
	if len(tasks) == 0 {
		return nil
	}
	workers := e.cfg.Workers
	if workers > len(tasks) {
		workers = len(tasks)
	}

	results := make([]candidate, len(tasks))
	work := make(chan int, len(tasks))
	for i := range tasks {
		work <- i
	}
	close(work)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				select {
				case <-ctx.Done():
					return
				default:
				}
				results[i] = e.scoreOne(idx, q, original, tasks[i])
			}
		}()
	}
	wg.Wait()

	scored := make([]candidate, 0, len(results))
	for _, c := range results {
		if c.code != "" {
			scored = append(scored, c)
		}
	}
	return scored
}

func (e *SearchEngine) scoreOne(idx *indexSet, q scoring.Query, original bool, t scoreTask) candidate {
	entry := idx.entries[t.doc]
	adj := e.categories.Adjust(q.Text, entry.Code)
	score := e.scorer.Score(q, scoring.Candidate{
		Description: entry.Description,
		DescLemmas:  idx.lemmas[t.doc],
		Semantic:    t.semantic,
		Boost:       adj.Boost,
		Penalty:     adj.Penalty,
	})
	source := matchSemantic
	if t.lexical {
		source = matchHybrid
		// Both retrievers agreeing on the document is a stronger signal
		// than either alone.
		if t.semantic > 0.3 {
			score *= 1.1
		}
	}
	if !original {
		// Synonym and noise-phrase rewrites rank slightly below hits on
		// the query as the user wrote it.
		score *= 0.95
	}
	if score > 1 {
		score = 1
	}
	return candidate{
		doc:         t.doc,
		code:        entry.Code,
		description: entry.Description,
		score:       score,
		source:      source,
	}
}
