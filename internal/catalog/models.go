// Package catalog provides the tariff code reference table and the layered
// text search over it.
package catalog

import (
	"regexp"
	"strings"
	"time"
)

// Entry is one row of the tariff code reference table.
type Entry struct {
	ID          int64
	Code        string // 4 to 10 digits as published; padded to 10 for indexing
	Description string
	Language    string // two-letter description language, "ru" for the published catalog
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// codePattern accepts codes at every published precision.
var codePattern = regexp.MustCompile(`^(\d{4}|\d{6}|\d{8}|\d{10})$`)

// ValidCode reports whether s is a tariff code at 4, 6, 8 or 10 digit
// precision.
func ValidCode(s string) bool {
	return codePattern.MatchString(strings.TrimSpace(s))
}

// NormalizeCode strips the spacing and dots used in printed tariff tables,
// so "0702 00 000 0" becomes "0702000000". Letters are kept, which makes
// mixed text fail validation instead of silently matching.
func NormalizeCode(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '.' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// PadCode right-pads a code to the full 10-digit precision.
func PadCode(code string) string {
	if len(code) >= 10 {
		return code
	}
	return code + strings.Repeat("0", 10-len(code))
}

var segmentSplitter = regexp.MustCompile(`->|:`)

// Segments splits a hierarchical description like
// "Томаты -> свежие или охлажденные: прочие" into its meaningful parts.
// The generic "прочие" buckets carry no searchable wording and are dropped.
func Segments(description string) []string {
	var segments []string
	for _, part := range segmentSplitter.Split(description, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(part), "проч") {
			continue
		}
		segments = append(segments, part)
	}
	return segments
}
