package textmatch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s and strips combining marks so that "Hélène" and
// "helene" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// Contains reports whether needle occurs in haystack ignoring case and accents.
// An empty needle matches everything.
func Contains(haystack, needle string) bool {
	n := Fold(needle)
	if n == "" {
		return true
	}
	return strings.Contains(Fold(haystack), n)
}

// ContainsAny reports whether needle occurs in any of the candidates.
func ContainsAny(needle string, candidates ...string) bool {
	n := Fold(needle)
	if n == "" {
		return true
	}
	for _, c := range candidates {
		if strings.Contains(Fold(c), n) {
			return true
		}
	}
	return false
}
