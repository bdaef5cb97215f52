// Package category maps queries to product categories and turns a
// candidate's code prefix into score boosts, penalties, and accept/reject
// filtering. All behavior is table-driven so rules can be replaced at
// startup without touching the classifier itself.
package category

import "strings"

// Trigger is a conjunction of clauses. Every clause must match; a clause
// matches when any of its substrings occurs in the query.
type Trigger [][]string

func (t Trigger) fires(query string) bool {
	for _, clause := range t {
		hit := false
		for _, kw := range clause {
			if strings.Contains(query, kw) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return len(t) > 0
}

// PrefixEffect applies a boost or penalty when the candidate code starts
// with one of the prefixes. Exactly one of Boost or Penalty is set.
type PrefixEffect struct {
	Prefixes []string `yaml:"prefixes"`
	Boost    float64  `yaml:"boost,omitempty"`
	Penalty  float64  `yaml:"penalty,omitempty"`
}

func (e *PrefixEffect) matches(codePrefix string) bool {
	for _, p := range e.Prefixes {
		if p != "" && strings.HasPrefix(codePrefix, p) {
			return true
		}
	}
	return false
}

// Rule adjusts scores for queries it recognizes. Within a rule the first
// matching effect wins; Otherwise applies when no effect matched.
type Rule struct {
	Name     string    `yaml:"name"`
	Triggers []Trigger `yaml:"triggers"`
	// Suppress deactivates the rule when any substring is present. Used by
	// the general food rule so meat queries fall through to the meat rule.
	Suppress  []string       `yaml:"suppress,omitempty"`
	Effects   []PrefixEffect `yaml:"effects"`
	Otherwise *PrefixEffect  `yaml:"otherwise,omitempty"`
	// Sticky rules only ever raise the current boost/penalty; non-sticky
	// rules overwrite it. Later rules in the list win either way, which is
	// what lets the confusable-pair overrides beat the generic rules.
	Sticky bool `yaml:"sticky,omitempty"`
}

func (r *Rule) fires(query string) bool {
	for _, s := range r.Suppress {
		if strings.Contains(query, s) {
			return false
		}
	}
	for _, t := range r.Triggers {
		if t.fires(query) {
			return true
		}
	}
	return false
}

func (r *Rule) effectFor(codePrefix string) *PrefixEffect {
	for i := range r.Effects {
		if r.Effects[i].matches(codePrefix) {
			return &r.Effects[i]
		}
	}
	return r.Otherwise
}

// RelaxedExclusion rejects a code prefix during the relaxed filter pass,
// optionally only when the description mentions one of DescAny.
type RelaxedExclusion struct {
	Prefix  string   `yaml:"prefix"`
	DescAny []string `yaml:"desc_any,omitempty"`
}

// FilterCategory drives the strict accept/reject pass: a kept candidate must
// start with an allowed prefix, must not start with an excluded one, and its
// description must contain one of the required words.
type FilterCategory struct {
	Name          string             `yaml:"name"`
	Keywords      []string           `yaml:"keywords"`
	Allowed       []string           `yaml:"allowed"`
	Excluded      []string           `yaml:"excluded"`
	RequiredWords []string           `yaml:"required_words"`
	Relaxed       []RelaxedExclusion `yaml:"relaxed_exclusions,omitempty"`
}

// Tables bundles everything the classifier needs. Order is significant in
// every list: detection takes the first filter category whose keyword
// matches, the generic chain takes the first rule that fires, and specific
// rules apply top to bottom.
type Tables struct {
	Filters  []FilterCategory `yaml:"filters"`
	Generic  []Rule           `yaml:"generic"`
	Specific []Rule           `yaml:"specific"`
}

// Adjustment is the category contribution to a candidate's score. Boost is
// added to the fused score, Penalty joins the subtracted penalty sum.
type Adjustment struct {
	Boost   float64
	Penalty float64
}

// Item is the candidate view the filter needs.
type Item struct {
	Code        string
	Description string
}

// Classifier applies category tables to queries and candidates.
type Classifier struct {
	tables Tables
}

// New returns a classifier with the built-in tables.
func New() *Classifier {
	return NewWithTables(DefaultTables())
}

// NewWithTables returns a classifier over custom tables. Empty table
// sections fall back to the built-in ones.
func NewWithTables(t Tables) *Classifier {
	def := DefaultTables()
	if len(t.Filters) == 0 {
		t.Filters = def.Filters
	}
	if len(t.Generic) == 0 {
		t.Generic = def.Generic
	}
	if len(t.Specific) == 0 {
		t.Specific = def.Specific
	}
	return &Classifier{tables: t}
}

// Detect returns the first filter category whose keyword occurs in the
// query. Iteration order over categories is fixed by the table.
func (c *Classifier) Detect(query string) (string, bool) {
	query = strings.ToLower(query)
	for _, fc := range c.tables.Filters {
		for _, kw := range fc.Keywords {
			if strings.Contains(query, kw) {
				return fc.Name, true
			}
		}
	}
	return "", false
}

// Category returns the filter table entry by name.
func (c *Classifier) Category(name string) (FilterCategory, bool) {
	for _, fc := range c.tables.Filters {
		if fc.Name == name {
			return fc, true
		}
	}
	return FilterCategory{}, false
}

// Adjust computes the boost and penalty for one candidate code. The generic
// chain contributes first; specific rules then overwrite (or, when sticky,
// raise) the result in table order, so a specific override always beats the
// generic rule it follows.
func (c *Classifier) Adjust(query, code string) Adjustment {
	query = strings.ToLower(query)
	codePrefix := code
	if len(codePrefix) > 4 {
		codePrefix = codePrefix[:4]
	}

	var adj Adjustment
	for i := range c.tables.Generic {
		r := &c.tables.Generic[i]
		if !r.fires(query) {
			continue
		}
		if eff := r.effectFor(codePrefix); eff != nil {
			if eff.Boost > 0 {
				adj.Boost = eff.Boost
			}
			if eff.Penalty > 0 {
				adj.Penalty = eff.Penalty
			}
		}
		break
	}

	for i := range c.tables.Specific {
		r := &c.tables.Specific[i]
		if !r.fires(query) {
			continue
		}
		eff := r.effectFor(codePrefix)
		if eff == nil {
			continue
		}
		switch {
		case r.Sticky:
			if eff.Boost > adj.Boost {
				adj.Boost = eff.Boost
			}
			if eff.Penalty > adj.Penalty {
				adj.Penalty = eff.Penalty
			}
		default:
			if eff.Boost > 0 {
				adj.Boost = eff.Boost
			}
			if eff.Penalty > 0 {
				adj.Penalty = eff.Penalty
			}
		}
	}
	return adj
}

// Filter applies the three-tier category filter: strict accept, then a
// relaxed pass that only drops unambiguously wrong candidates (capped at 5),
// then the top 3 of the original input. A non-empty input never filters down
// to nothing.
func (c *Classifier) Filter(items []Item, query string) []Item {
	if len(items) == 0 {
		return items
	}
	name, ok := c.Detect(query)
	if !ok {
		return items
	}
	fc, _ := c.Category(name)

	var kept, rejected []Item
	for _, item := range items {
		if c.strictKeep(fc, item) {
			kept = append(kept, item)
		} else {
			rejected = append(rejected, item)
		}
	}
	if len(kept) > 0 {
		return kept
	}

	for _, item := range rejected {
		if !relaxedExclude(fc, item) {
			kept = append(kept, item)
		}
		if len(kept) >= 5 {
			break
		}
	}
	if len(kept) > 0 {
		return kept
	}

	if len(items) > 3 {
		return items[:3]
	}
	return items
}

func (c *Classifier) strictKeep(fc FilterCategory, item Item) bool {
	allowed := false
	for _, p := range fc.Allowed {
		if strings.HasPrefix(item.Code, p) {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}
	for _, p := range fc.Excluded {
		if strings.HasPrefix(item.Code, p) {
			return false
		}
	}
	desc := strings.ToLower(item.Description)
	for _, w := range fc.RequiredWords {
		if strings.Contains(desc, w) {
			return true
		}
	}
	return false
}

func relaxedExclude(fc FilterCategory, item Item) bool {
	desc := strings.ToLower(item.Description)
	for _, ex := range fc.Relaxed {
		if !strings.HasPrefix(item.Code, ex.Prefix) {
			continue
		}
		if len(ex.DescAny) == 0 {
			return true
		}
		for _, w := range ex.DescAny {
			if strings.Contains(desc, w) {
				return true
			}
		}
	}
	return false
}
