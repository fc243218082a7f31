// Package textutil holds the string helpers shared by scoring, extraction and
// discovery: whitespace cleanup, keyword overlap and loose country matching.
package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxChars bounds page text handed to the extractor.
const DefaultMaxChars = 8000

const truncatedSuffix = "…[truncated]"

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "in": {}, "for": {},
	"and": {}, "or": {}, "to": {}, "is": {}, "at": {}, "on": {},
}

var countryAliases = map[string]string{
	"usa":     "united states",
	"us":      "united states",
	"uk":      "united kingdom",
	"britain": "united kingdom",
	"korea":   "south korea",
	"rok":     "south korea",
}

// CleanText applies NFKC normalization and folds every whitespace run into a single space.
func CleanText(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most maxChars runes and marks the cut.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars]) + truncatedSuffix
}

// NormalizeCountry lowercases and trims a country name and maps common aliases.
func NormalizeCountry(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := countryAliases[normalized]; ok {
		return alias
	}
	return normalized
}

// FuzzyContains reports whether needle occurs in haystack, ignoring case and
// surrounding whitespace.
func FuzzyContains(haystack, needle string) bool {
	return strings.Contains(
		strings.ToLower(strings.TrimSpace(haystack)),
		strings.ToLower(strings.TrimSpace(needle)),
	)
}

// KeywordOverlap returns |A∩B| / min(|A|,|B|) over the lowercased, stop-word
// filtered token sets of both texts. A short text fully contained in a long one
// scores 1. Either side empty after filtering yields 0.
func KeywordOverlap(a, b string) float64 {
	wordsA := keywords(a)
	wordsB := keywords(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	small, large := wordsA, wordsB
	if len(small) > len(large) {
		small, large = large, small
	}

	shared := 0
	for w := range small {
		if _, ok := large[w]; ok {
			shared++
		}
	}

	return float64(shared) / float64(len(small))
}

func keywords(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, stop := stopWords[f]; stop {
			continue
		}
		set[f] = struct{}{}
	}
	return set
}
