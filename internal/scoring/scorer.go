// Package scoring turns raw retrieval signals into one ranked confidence
// score per candidate tariff heading.
//
// Three signals are blended with weights chosen by query length: semantic
// similarity from the embedding index, fuzzy string similarity, and weighted
// lemma overlap. Category boosts and penalties from the classifier shift the
// blend before it is clamped to [0, 1].
package scoring

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/hscode-tools/hscode-engine/internal/textproc"
)

// Weights blends the three retrieval signals for one query-length band.
type Weights struct {
	Semantic float64
	Fuzzy    float64
	Overlap  float64
}

// normalized scales the weights to sum to 1.0.
func (w Weights) normalized() Weights {
	total := w.Semantic + w.Fuzzy + w.Overlap
	if total <= 0 {
		return w
	}
	return Weights{
		Semantic: w.Semantic / total,
		Fuzzy:    w.Fuzzy / total,
		Overlap:  w.Overlap / total,
	}
}

func (w Weights) zero() bool {
	return w.Semantic == 0 && w.Fuzzy == 0 && w.Overlap == 0
}

// Config sets one weight band per query length. Longer queries shift weight
// from fuzzy matching toward semantic similarity: a one-word query can still
// fuzzy-match a catalog row directly, a long phrase cannot.
type Config struct {
	ShortQuery  Weights // one or two tokens
	MediumQuery Weights // three or four tokens
	LongQuery   Weights // five tokens and more

	// WeakSemanticFloor is the semantic similarity below which the flat
	// weak-semantic penalty applies. A candidate the embedding model calls
	// unrelated should not win on spelling similarity alone. Zero or
	// negative means the default of 0.10.
	WeakSemanticFloor float64
}

func (c Config) withDefaults() Config {
	if c.ShortQuery.zero() {
		c.ShortQuery = Weights{Semantic: 0.60, Fuzzy: 0.25, Overlap: 0.15}
	} else {
		c.ShortQuery = c.ShortQuery.normalized()
	}
	if c.MediumQuery.zero() {
		c.MediumQuery = Weights{Semantic: 0.70, Fuzzy: 0.15, Overlap: 0.15}
	} else {
		c.MediumQuery = c.MediumQuery.normalized()
	}
	if c.LongQuery.zero() {
		c.LongQuery = Weights{Semantic: 0.75, Fuzzy: 0.10, Overlap: 0.15}
	} else {
		c.LongQuery = c.LongQuery.normalized()
	}
	if c.WeakSemanticFloor <= 0 {
		c.WeakSemanticFloor = 0.10
	}
	return c
}

// Scorer ranks candidates. It is stateless after construction and safe for
// concurrent use.
type Scorer struct {
	cfg Config
}

// New creates a scorer with the default weight bands.
func New() *Scorer {
	return NewWithConfig(Config{})
}

// NewWithConfig creates a scorer with custom weight bands. Zero-value bands
// fall back to the defaults; non-zero bands are normalized to sum to 1.0.
func NewWithConfig(cfg Config) *Scorer {
	return &Scorer{cfg: cfg.withDefaults()}
}

// WeightsFor returns the weight band used for a query of the given token
// count.
func (s *Scorer) WeightsFor(tokenCount int) Weights {
	switch {
	case tokenCount <= 2:
		return s.cfg.ShortQuery
	case tokenCount <= 4:
		return s.cfg.MediumQuery
	default:
		return s.cfg.LongQuery
	}
}

// Query is a search request analyzed once and then scored against many
// candidates.
type Query struct {
	Text   string // normalized query text, lowercase
	Tokens []string
	Lemmas []string
}

// NewQuery analyzes raw text into the scoring representation.
func NewQuery(text string, lang textproc.Language) Query {
	norm := textproc.Normalize(text)
	return Query{
		Text:   norm,
		Tokens: textproc.Tokens(norm),
		Lemmas: strings.Fields(textproc.Lemmatize(norm, lang)),
	}
}

// Candidate carries the per-result signals gathered before ranking.
type Candidate struct {
	Description string // catalog description, original casing
	DescLemmas  []string
	Semantic    float64 // cosine similarity, zero when embeddings are unavailable
	Boost       float64 // category boost
	Penalty     float64 // category penalty
}

// Breakdown itemizes every term of one scored pair. The engine surfaces it
// in response diagnostics.
type Breakdown struct {
	Weights             Weights
	Semantic            float64
	Fuzzy               float64
	Overlap             float64
	PhraseBonus         float64
	PositionBonus       float64
	CategoryBoost       float64
	LengthPenalty       float64
	CategoryPenalty     float64
	WeakSemanticPenalty float64
	UnmatchedPenalty    float64
	Final               float64
}

// Score returns the final confidence for one candidate.
func (s *Scorer) Score(q Query, c Candidate) float64 {
	return s.Explain(q, c).Final
}

// Explain scores one candidate and reports every term of the sum.
func (s *Scorer) Explain(q Query, c Candidate) Breakdown {
	b := Breakdown{
		Weights:         s.WeightsFor(len(q.Tokens)),
		Semantic:        math.Max(0, c.Semantic),
		CategoryBoost:   c.Boost,
		CategoryPenalty: c.Penalty,
	}

	b.Fuzzy = BestScore(q.Text, strings.ToLower(c.Description))
	b.Overlap = WeightedOverlap(q.Lemmas, c.DescLemmas)

	// A query whose full lemma phrase appears verbatim in the description is
	// almost certainly the right row.
	queryPhrase := strings.Join(q.Lemmas, " ")
	if utf8.RuneCountInString(queryPhrase) > 3 &&
		strings.Contains(strings.Join(c.DescLemmas, " "), queryPhrase) {
		b.PhraseBonus = 0.2
	}

	// Queries lead with the product noun and so do catalog rows, so reward
	// early query lemmas that appear near the head of the description.
	for i, lemma := range q.Lemmas {
		if i == 3 {
			break
		}
		for j, descLemma := range c.DescLemmas {
			if j == 5 {
				break
			}
			if descLemma == lemma {
				b.PositionBonus += 0.1 * (1 - 0.2*float64(i))
				break
			}
		}
	}

	if n := utf8.RuneCountInString(c.Description); n > 100 {
		b.LengthPenalty = math.Min(0.1, float64(n-100)/500)
	}

	if c.Semantic < s.cfg.WeakSemanticFloor {
		b.WeakSemanticPenalty = 0.25
	}

	querySet := make(map[string]bool, len(q.Lemmas))
	for _, lemma := range q.Lemmas {
		querySet[lemma] = true
	}
	if len(querySet) > 1 {
		descSet := make(map[string]bool, len(c.DescLemmas))
		for _, lemma := range c.DescLemmas {
			descSet[lemma] = true
		}
		unmatched := 0
		for lemma := range querySet {
			if !descSet[lemma] {
				unmatched++
			}
		}
		if ratio := float64(unmatched) / float64(len(querySet)); ratio > 0.5 {
			b.UnmatchedPenalty = 0.2 * ratio
		}
	}

	combined := b.Semantic*b.Weights.Semantic +
		b.Fuzzy*b.Weights.Fuzzy +
		(b.Overlap+b.PhraseBonus+b.PositionBonus)*b.Weights.Overlap +
		b.CategoryBoost
	penalty := b.LengthPenalty + b.CategoryPenalty +
		b.WeakSemanticPenalty + b.UnmatchedPenalty

	b.Final = math.Max(0, math.Min(1, combined-penalty))
	return b
}
