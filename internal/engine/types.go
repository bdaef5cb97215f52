// Package engine runs the classification cascade that maps a free-text
// product description to a ten-digit tariff code: cached answers, exact code
// and phrase matches, hybrid lexical plus semantic retrieval with catalog
// validation, and three progressively broader repository fallbacks. Each
// stage ends the cascade as soon as it produces a usable, category-filtered
// result.
package engine

import "errors"

// Status classifies the outcome of one search.
type Status string

const (
	// StatusHighConfidence marks a best match scoring at or above the high
	// confidence band.
	StatusHighConfidence Status = "high_confidence"
	// StatusMediumConfidence marks a best match in the medium band.
	StatusMediumConfidence Status = "medium_confidence"
	// StatusLowConfidence marks a best match that cleared the floor but
	// stayed below the medium band.
	StatusLowConfidence Status = "low_confidence"
	// StatusNotFoundWithSuggestions means no candidate cleared the best
	// match floor but weak suggestions are attached.
	StatusNotFoundWithSuggestions Status = "not_found_with_suggestions"
	// StatusNotFound means nothing relevant was found at any stage.
	StatusNotFound Status = "not_found"
	// StatusSystemError means the search could not run at all.
	StatusSystemError Status = "system_error"
)

// Found reports whether the status carries a best match.
func (s Status) Found() bool {
	switch s {
	case StatusHighConfidence, StatusMediumConfidence, StatusLowConfidence:
		return true
	}
	return false
}

// Match is one ranked classification candidate.
type Match struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	// Source names the retrieval path that produced the candidate:
	// exact_code, exact_phrase, hybrid, semantic or database.
	Source string `json:"source"`
}

// Diagnostics carries per-search observability data alongside the result.
type Diagnostics struct {
	TraceID          string   `json:"trace_id,omitempty"`
	Source           string   `json:"source,omitempty"` // cascade stage that answered
	ExpandedQueries  []string `json:"expanded_queries,omitempty"`
	TotalCandidates  int      `json:"total_candidates"`
	ProcessingTimeMS int64    `json:"processing_time_ms"`
	FromCache        bool     `json:"from_cache"`
	Warnings         []string `json:"warnings,omitempty"`
}

// Response is the complete outcome of one classification search. Similar
// holds runner-up matches for found statuses and weak suggestions for
// StatusNotFoundWithSuggestions.
type Response struct {
	Status      Status      `json:"status"`
	Message     string      `json:"message,omitempty"`
	BestMatch   *Match      `json:"best_match,omitempty"`
	Similar     []Match     `json:"similar,omitempty"`
	Confidence  float64     `json:"confidence"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

var (
	// ErrEmptyQuery rejects blank queries before the cascade starts.
	ErrEmptyQuery = errors.New("query is empty")
	// ErrIndexNotReady means BuildIndexes has not completed yet.
	ErrIndexNotReady = errors.New("search indexes are not built yet")
)

// Cascade stage names reported in Diagnostics.Source.
const (
	sourceExact           = "exact"
	sourceHybrid          = "hybrid"
	sourceCategorySearch  = "category_search"
	sourceSegmentFallback = "segment_fallback"
	sourceKeywordFallback = "keyword_fallback"
	sourceNone            = "none"
)

// Candidate provenance reported in Match.Source.
const (
	matchExactCode   = "exact_code"
	matchExactPhrase = "exact_phrase"
	matchHybrid      = "hybrid"
	matchSemantic    = "semantic"
	matchDatabase    = "database"
)
