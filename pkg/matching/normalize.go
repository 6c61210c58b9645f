// Package matching holds the string primitives shared by the field and
// value mapping resolvers: canonical normalization and ranked candidate
// suggestions.
package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticsRemover = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize lowercases, strips diacritics and drops every non-alphanumeric
// rune, so "Prénom " and "prenom" compare equal.
func Normalize(s string) string {
	lowered := strings.ToLower(strings.TrimSpace(s))
	stripped, _, err := transform.String(diacriticsRemover, lowered)
	if err != nil {
		stripped = lowered
	}

	var sb strings.Builder
	sb.Grow(len(stripped))
	for _, r := range stripped {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// EqualNormalized reports whether two strings normalize to the same value.
func EqualNormalized(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// ContainsNormalized reports whether the normalized needle occurs inside
// the normalized haystack. An empty needle never matches.
func ContainsNormalized(haystack, needle string) bool {
	n := Normalize(needle)
	if n == "" {
		return false
	}
	return strings.Contains(Normalize(haystack), n)
}
