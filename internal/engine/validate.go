package engine

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/hscode-tools/hscode-engine/internal/catalog"
	"github.com/hscode-tools/hscode-engine/internal/category"
)

// validateAndEnrich re-checks the leading candidates against the catalog.
// Codes the catalog no longer carries are dropped, unless nothing at all
// validates, in which case everything is kept and flagged so the caller
// still sees the closest matches instead of an empty answer.
func (e *SearchEngine) validateAndEnrich(ctx context.Context, cands []candidate) ([]candidate, []string) {
	valid := make([]candidate, 0, len(cands))
	invalid := make([]candidate, 0)
	for _, c := range cands {
		entry, err := e.repo.LookupByCode(ctx, c.code)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				c.warning = fmt.Sprintf("code %s is not in the reference catalog", c.code)
			} else {
				e.logger.Warn().Err(err).Str("code", c.code).Msg("Candidate validation failed")
				c.warning = fmt.Sprintf("code %s could not be validated", c.code)
			}
			invalid = append(invalid, c)
			continue
		}
		c.description = reconcileDescription(c.description, entry.Description)
		valid = append(valid, c)
	}
	if len(valid) > 0 {
		return valid, nil
	}
	warnings := make([]string, 0, len(invalid))
	for _, c := range invalid {
		warnings = append(warnings, c.warning)
	}
	return invalid, warnings
}

// reconcileDescription chooses between the index snapshot and the fresh
// catalog wording. The snapshot wins when the authoritative row looks
// truncated relative to what was indexed.
func reconcileDescription(snapshot, authoritative string) string {
	snapLen := utf8.RuneCountInString(snapshot)
	authLen := utf8.RuneCountInString(authoritative)
	if snapLen > 2*authLen {
		return snapshot
	}
	if authLen < 50 && snapLen > authLen {
		return snapshot
	}
	return authoritative
}

// filterByCategory applies the category tables to ranked candidates,
// preserving ranking order among the survivors.
func (e *SearchEngine) filterByCategory(cands []candidate, query string) []candidate {
	if len(cands) == 0 {
		return cands
	}
	items := make([]category.Item, len(cands))
	for i, c := range cands {
		items[i] = category.Item{Code: c.code, Description: c.description}
	}
	kept := e.categories.Filter(items, query)
	if len(kept) == len(cands) {
		return cands
	}
	byCode := make(map[string]candidate, len(cands))
	for _, c := range cands {
		byCode[c.code] = c
	}
	out := make([]candidate, 0, len(kept))
	for _, item := range kept {
		if c, ok := byCode[item.Code]; ok {
			out = append(out, c)
		}
	}
	return out
}
