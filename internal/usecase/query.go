package usecase

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMinQueryLength is the shortest query that triggers provider search
const DefaultMinQueryLength = 3

var multipleSpacesRegex = regexp.MustCompile(`\s+`)

// isSearchable reports whether a raw query is long enough to go to the provider.
// Length is counted in runes and the query is not trimmed first. Counting runes
// rather than UTF-16 code units is deliberate: "🌱a" is two characters here,
// where a browser text field would report three.
func isSearchable(query string, minLength int) bool {
	return utf8.RuneCountInString(query) >= minLength
}

// normalizeQuery lowercases a query and collapses whitespace so equivalent
// queries share a cache key
func normalizeQuery(query string) string {
	q := strings.ToLower(query)
	q = multipleSpacesRegex.ReplaceAllString(q, " ")
	return strings.TrimSpace(q)
}
