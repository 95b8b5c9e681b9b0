// Package textnorm folds Portuguese text into a comparable form: lowercase,
// accents stripped, punctuation collapsed to spaces.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and removes combining diacritics ("Março" -> "marco").
// Ordinal indicators (º, ª) and punctuation are kept.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Tokens folds s and splits it into word tokens. Letters, digits, '/', '-'
// and ordinal indicators stay inside a token so that "05/2025", "2025-05"
// and "1º" survive as single tokens.
func Tokens(s string) []string {
	folded := Fold(s)
	return strings.FieldsFunc(folded, func(r rune) bool {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
		switch r {
		case '/', '-', 'º', 'ª', '°':
			return false
		}
		return true
	})
}

// Padded returns the tokens of s joined by single spaces with a leading and
// trailing space, so whole-word containment is a plain substring check:
// strings.Contains(Padded(s), " "+word+" ").
func Padded(s string) string {
	return " " + strings.Join(Tokens(s), " ") + " "
}

// ContainsPhrase reports whether the folded phrase occurs in padded on token
// boundaries. padded must come from Padded.
func ContainsPhrase(padded, phrase string) bool {
	p := strings.Join(Tokens(phrase), " ")
	if p == "" {
		return false
	}
	return strings.Contains(padded, " "+p+" ")
}
