package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips diacritics: the input is decomposed (NFD), combining
// marks are dropped and the remainder is recomposed. "Pïkāchu" folds to "pikachu".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// NameKey is the case-folded form used for case-insensitive exact name matching.
// Unlike Fold it keeps diacritics, so "Eevee" and "Évoli" stay distinct keys.
func NameKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
