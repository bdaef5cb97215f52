// Package textproc prepares free-text product descriptions and queries for
// matching: casing/punctuation normalization, Cyrillic-to-Latin
// transliteration, stopword removal, and stemming-based lemmatization with a
// curated base-form table for common product nouns.
//
// All functions are pure and fail soft: empty or garbage input yields empty
// output, never an error.
package textproc

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
	"github.com/surgebase/porter2"
	"golang.org/x/text/unicode/norm"
)

// Language selects the stopword set used during lemmatization.
type Language string

const (
	LanguageRU Language = "ru"
	LanguageUZ Language = "uz"
	LanguageEN Language = "en"
)

// ParseLanguage maps a request language tag to a supported Language.
// Unknown or empty tags fall back to Russian, the catalog language.
func ParseLanguage(s string) Language {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uz", "uzb":
		return LanguageUZ
	case "en", "eng":
		return LanguageEN
	default:
		return LanguageRU
	}
}

var (
	// nonTextPattern strips everything outside letters, digits, whitespace
	// and basic punctuation, mirroring how catalog descriptions are stored.
	nonTextPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s.,;:!?-]`)
	wsPattern      = regexp.MustCompile(`\s+`)
	tokenTrim      = ".,;:!?-"
)

// Normalize lowercases the input, composes it to NFKC, replaces special
// characters with spaces and collapses whitespace.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.ReplaceAll(s, "‏", "")
	s = strings.ToLower(s)
	s = nonTextPattern.ReplaceAllString(s, " ")
	s = wsPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// translitMap is the fixed Cyrillic-to-Latin table. Hard and soft signs are
// dropped; digraphs follow the catalog's own romanization.
var translitMap = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "yo",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

// Transliterate converts Cyrillic text to its Latin form. Non-Cyrillic runes
// pass through unchanged.
func Transliterate(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if repl, ok := translitMap[r]; ok {
			b.WriteString(repl)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Tokens splits normalized text into word tokens, trimming stray punctuation.
func Tokens(s string) []string {
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, tokenTrim)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Lemmatize reduces each token to a base form: the curated variation table
// first, then a Snowball stem (Russian for Cyrillic tokens, Porter2 for Latin
// ones), then the variation table again on the stem. Stopwords and single
// characters are dropped; digit-only tokens are kept verbatim.
func Lemmatize(s string, lang Language) string {
	if s == "" {
		return ""
	}
	stops := stopwordSet(lang)
	tokens := Tokens(strings.ToLower(s))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if isDigits(tok) {
			out = append(out, tok)
			continue
		}
		if stops[tok] {
			continue
		}
		lemma := lemmaOf(tok)
		if len([]rune(lemma)) <= 1 || stops[lemma] {
			continue
		}
		out = append(out, lemma)
	}
	return strings.Join(out, " ")
}

// lemmaOf resolves one token to its lemma.
func lemmaOf(tok string) string {
	if base, ok := variationToBase[tok]; ok {
		return base
	}
	stemmed := stem(tok)
	if base, ok := variationToBase[stemmed]; ok {
		return base
	}
	return stemmed
}

// stem applies the script-appropriate stemmer.
func stem(tok string) string {
	if hasCyrillic(tok) {
		if s, err := snowball.Stem(tok, "russian", false); err == nil && s != "" {
			return s
		}
		return tok
	}
	if isASCIILetters(tok) {
		return porter2.Stem(tok)
	}
	return tok
}

// Pipeline runs the full preparation chain and returns the normalized,
// transliterated and lemmatized forms of the input.
func Pipeline(s string, lang Language) (normalized, transliterated, lemmatized string) {
	if s == "" {
		return "", "", ""
	}
	normalized = Normalize(s)
	transliterated = Transliterate(normalized)
	lemmatized = Lemmatize(normalized, lang)
	return normalized, transliterated, lemmatized
}

// RemoveStopwords filters stopwords and single characters from the text.
func RemoveStopwords(s string, lang Language) string {
	stops := stopwordSet(lang)
	words := strings.Fields(strings.ToLower(s))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if stops[w] || len([]rune(w)) <= 1 {
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

// CleanDescription prepares a catalog description for display: collapsed
// whitespace, special characters replaced, original casing kept.
func CleanDescription(s string) string {
	if s == "" {
		return ""
	}
	s = nonTextPattern.ReplaceAllString(s, " ")
	s = wsPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ContainsValidWord reports whether the text has at least one usable word.
func ContainsValidWord(s string) bool {
	for _, w := range strings.Fields(Normalize(s)) {
		if _, ok := variationToBase[w]; ok {
			return true
		}
		if len([]rune(w)) > 1 {
			return true
		}
	}
	return false
}

// KnownProductTerm reports whether the query names a product from the curated
// variation table. Used to phrase the not-found response: a recognized product
// with no match reads differently from unrecognizable input.
func KnownProductTerm(s string) bool {
	for _, w := range Tokens(Normalize(s)) {
		if _, ok := variationToBase[w]; ok {
			return true
		}
		if _, ok := variationToBase[stem(w)]; ok {
			return true
		}
	}
	return false
}

// BaseForm returns the curated base form for a token, if one exists.
func BaseForm(tok string) (string, bool) {
	base, ok := variationToBase[tok]
	return base, ok
}

func hasCyrillic(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Cyrillic, r) {
			return true
		}
	}
	return false
}

func isASCIILetters(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return len(s) > 0
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
