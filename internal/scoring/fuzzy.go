package scoring

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

// Ratio returns the normalized Levenshtein similarity of two strings in
// [0, 1]. Comparisons are case sensitive; callers normalize first.
func Ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	sim, err := edlib.StringsSimilarity(a, b, edlib.Levenshtein)
	if err != nil {
		return 0.0
	}
	return float64(sim)
}

// PartialRatio slides the shorter string over the longer one and returns the
// best window similarity. A product name buried inside a long catalog
// description still scores close to 1.0.
func PartialRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == len(long) {
		return Ratio(a, b)
	}
	shortStr := string(short)
	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		sim := Ratio(string(long[i:i+len(short)]), shortStr)
		if sim > best {
			best = sim
			if best == 1.0 {
				break
			}
		}
	}
	return best
}

// TokenSortRatio compares the two strings with their whitespace tokens
// sorted, so word order stops mattering.
func TokenSortRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	return Ratio(sortedTokenString(a), sortedTokenString(b))
}

// TokenSetRatio compares the shared tokens against each side's full token
// set. When one side's tokens are a subset of the other's it returns 1.0,
// which makes short queries match long catalog rows that contain them.
func TokenSetRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	setA, setB := uniqueSortedTokens(a), uniqueSortedTokens(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	inB := make(map[string]bool, len(setB))
	for _, tok := range setB {
		inB[tok] = true
	}
	var shared, onlyA, onlyB []string
	for _, tok := range setA {
		if inB[tok] {
			shared = append(shared, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	inShared := make(map[string]bool, len(shared))
	for _, tok := range shared {
		inShared[tok] = true
	}
	for _, tok := range setB {
		if !inShared[tok] {
			onlyB = append(onlyB, tok)
		}
	}

	base := strings.Join(shared, " ")
	full1 := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	full2 := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := Ratio(full1, full2)
	if base != "" {
		if r := Ratio(base, full1); r > best {
			best = r
		}
		if r := Ratio(base, full2); r > best {
			best = r
		}
	}
	return best
}

// BestScore returns the strongest of the four fuzzy similarity metrics.
func BestScore(a, b string) float64 {
	best := Ratio(a, b)
	if best < 1.0 {
		if r := PartialRatio(a, b); r > best {
			best = r
		}
	}
	if best < 1.0 {
		if r := TokenSortRatio(a, b); r > best {
			best = r
		}
	}
	if best < 1.0 {
		if r := TokenSetRatio(a, b); r > best {
			best = r
		}
	}
	return best
}

func sortedTokenString(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func uniqueSortedTokens(s string) []string {
	seen := make(map[string]bool)
	var tokens []string
	for _, tok := range strings.Fields(s) {
		if !seen[tok] {
			seen[tok] = true
			tokens = append(tokens, tok)
		}
	}
	sort.Strings(tokens)
	return tokens
}
