// Package textnorm holds the phrase normalization shared by the catalog index
// and the extractor, so both sides of a lookup agree on what "the same phrase"
// means.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var quotes = strings.NewReplacer("\u2019", "'", "\u2018", "'")

// Key returns the lookup form of s: NFKC-folded, lowercased, trimmed, with
// internal whitespace collapsed to single spaces. Curly apostrophes become
// straight ones.
func Key(s string) string {
	s = quotes.Replace(norm.NFKC.String(s))
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}

// IsWordRune reports whether r can be part of a word.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// IsJoiner reports whether r stays inside a word when it sits between two
// word runes ("can't", "follow-up").
func IsJoiner(r rune) bool {
	return r == '\'' || r == '’' || r == '-' || r == '‐'
}

// WordRuneAt reports whether the rune starting at byte offset i of s is a
// word rune.
func WordRuneAt(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return IsWordRune(r)
}

// Words splits s into normalized words. Anything that is neither a word rune
// nor an inner joiner separates words, so "nausea/vomiting" and
// "nausea vomiting" give the same words.
func Words(s string) []string {
	var out []string
	start := -1
	flush := func(end int) {
		if start >= 0 {
			out = append(out, strings.Fields(Key(s[start:end]))...)
			start = -1
		}
	}
	for i, r := range s {
		switch {
		case IsWordRune(r):
			if start < 0 {
				start = i
			}
		case IsJoiner(r) && start >= 0 && WordRuneAt(s, i+utf8.RuneLen(r)):
		default:
			flush(i)
		}
	}
	flush(len(s))
	return out
}

// WordKey is Words joined by single spaces. The catalog index and extractor
// candidates both use it, so a phrase the extractor reports always looks up
// the same entry it would resolve to if it were in the catalog.
func WordKey(s string) string {
	return strings.Join(Words(s), " ")
}

// ContainsRun reports whether needle occurs as a contiguous run of tokens
// inside hay. An empty needle never matches.
func ContainsRun(hay, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(hay) {
		return false
	}
outer:
	for i := 0; i+len(needle) <= len(hay); i++ {
		for j := range needle {
			if hay[i+j] != needle[j] {
				continue outer
			}
		}
		return true
	}
	return false
}

// Overlaps reports whether either token run contains the other.
func Overlaps(a, b []string) bool {
	return ContainsRun(a, b) || ContainsRun(b, a)
}
