// Package textnorm provides name normalization used for fuzzy comparisons.
// This is part of the platform layer and contains no business logic.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics removes combining marks, so "Peña Ñuñez" becomes "Pena Nunez".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// Tokens lower-cases, strips diacritics and splits on anything that is not a
// letter or digit. Empty tokens are dropped; order is preserved.
func Tokens(s string) []string {
	cleaned := strings.ToLower(StripDiacritics(s))
	return strings.FieldsFunc(cleaned, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
