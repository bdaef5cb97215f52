// Package expansion rewrites a raw query into an ordered list of search
// variants: customs boilerplate stripped, colloquial product names replaced
// with their catalog spelling, and a focused variant that puts the product
// noun ahead of its modifiers.
//
// Ordering is load-bearing. The scorer treats the last variant as the user's
// own wording and slightly prefers matches found through it, so Expand always
// returns the original query last and never returns an empty list.
package expansion

import (
	"strings"
	"unicode/utf8"
)

// Synonym maps a colloquial spelling to the catalog's canonical one.
type Synonym struct {
	From string
	To   string
}

// Config overrides the built-in term tables. Empty fields keep the defaults.
type Config struct {
	// NoisePhrases are removed from the query by substring replacement,
	// in order. Keep longer phrases ahead of their substrings.
	NoisePhrases []string
	// Synonyms are applied in order, so inflected spellings must precede
	// the base spellings they contain (помидоры before помидор).
	Synonyms []Synonym
	// Indicators mark a token as a product noun when the token contains
	// one of them.
	Indicators []string
	// Descriptors are modifier tokens kept after the product nouns in the
	// focused variant.
	Descriptors []string
}

// Expander produces query variants from fixed term tables.
type Expander struct {
	noisePhrases []string
	synonyms     []Synonym
	indicators   []string
	descriptors  map[string]bool
}

// New returns an Expander with the built-in tables.
func New() *Expander {
	return NewWithConfig(Config{})
}

// NewWithConfig returns an Expander using cfg, falling back to the built-in
// tables for any field left empty.
func NewWithConfig(cfg Config) *Expander {
	if len(cfg.NoisePhrases) == 0 {
		cfg.NoisePhrases = defaultNoisePhrases
	}
	if len(cfg.Synonyms) == 0 {
		cfg.Synonyms = defaultSynonyms
	}
	if len(cfg.Indicators) == 0 {
		cfg.Indicators = defaultIndicators
	}
	if len(cfg.Descriptors) == 0 {
		cfg.Descriptors = defaultDescriptors
	}

	descriptors := make(map[string]bool, len(cfg.Descriptors))
	for _, d := range cfg.Descriptors {
		descriptors[d] = true
	}

	return &Expander{
		noisePhrases: cfg.NoisePhrases,
		synonyms:     cfg.Synonyms,
		indicators:   cfg.Indicators,
		descriptors:  descriptors,
	}
}

// Expand returns the ordered variant list for a raw query: focused variant
// first (when the query names a known product), then the cleaned query, then
// the original query last. Variants are de-duplicated preserving order; the
// result is never empty.
func (e *Expander) Expand(raw string) []string {
	original := strings.ToLower(strings.TrimSpace(raw))
	if utf8.RuneCountInString(original) < 2 {
		return []string{raw}
	}

	cleaned := original
	for _, phrase := range e.noisePhrases {
		cleaned = strings.ReplaceAll(cleaned, phrase, " ")
	}
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	normalized := cleaned
	for _, syn := range e.synonyms {
		if strings.Contains(normalized, syn.From) {
			normalized = strings.ReplaceAll(normalized, syn.From, syn.To)
		}
	}

	var priority, descriptors []string
	for _, word := range strings.Fields(normalized) {
		switch {
		case e.isIndicator(word):
			priority = append(priority, word)
		case e.descriptors[word]:
			descriptors = append(descriptors, word)
		}
	}

	var variants []string
	if len(priority) > 0 {
		focused := strings.Join(append(priority, descriptors...), " ")
		if focused != normalized {
			variants = append(variants, focused)
		}
	}
	if normalized != "" && normalized != original {
		variants = append(variants, normalized)
	}
	variants = append(variants, original)

	seen := make(map[string]bool, len(variants))
	result := make([]string, 0, len(variants))
	for _, v := range variants {
		v = strings.TrimSpace(v)
		if v == "" || utf8.RuneCountInString(v) < 2 || seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
	}
	if len(result) == 0 {
		return []string{raw}
	}
	return result
}

func (e *Expander) isIndicator(word string) bool {
	for _, ind := range e.indicators {
		if strings.Contains(word, ind) {
			return true
		}
	}
	return false
}
