package extractor

import (
	"strings"
	"unicode/utf8"

	"github.com/rcliao/symptom-catalog/internal/textnorm"
)

// word is one token with its byte span in the source text.
type word struct {
	key        string
	start, end int
}

// segment is a run of words between clause punctuation.
type segment []word

// isBoundary reports whether r ends a clause. Phrases never span a boundary.
func isBoundary(r rune) bool {
	switch r {
	case '.', '!', '?', ';', ':', ',', '(', ')', '[', ']', '{', '}', '"', '“', '”', '…', '|', '\n', '\r':
		return true
	}
	return false
}

// isAbbrevDot reports whether the rune at i is a period wedged between two
// word runes, as in "s.o.b.". It separates words without ending the clause.
func isAbbrevDot(text string, i int, inWord bool) bool {
	return inWord && text[i] == '.' && textnorm.WordRuneAt(text, i+1)
}

// tokenize splits text into clause segments of words. Whitespace and other
// symbols separate words without ending the segment. Word splitting follows
// textnorm.Words, so the words of any span match textnorm.WordKey of that
// span.
func tokenize(text string) []segment {
	var (
		segs  []segment
		cur   segment
		start = -1
	)
	endWord := func(end int) {
		if start >= 0 {
			for _, k := range strings.Fields(textnorm.Key(text[start:end])) {
				cur = append(cur, word{key: k, start: start, end: end})
			}
			start = -1
		}
	}
	endSegment := func() {
		if len(cur) > 0 {
			segs = append(segs, cur)
			cur = nil
		}
	}

	for i, r := range text {
		switch {
		case textnorm.IsWordRune(r):
			if start < 0 {
				start = i
			}
		case textnorm.IsJoiner(r) && start >= 0 && textnorm.WordRuneAt(text, i+utf8.RuneLen(r)):
			// inside a word
		default:
			inWord := start >= 0
			endWord(i)
			if isBoundary(r) && !isAbbrevDot(text, i, inWord) {
				endSegment()
			}
		}
	}
	endWord(len(text))
	endSegment()
	return segs
}

// phraseOf builds the candidate for a contiguous run of words.
func phraseOf(text string, ws []word, src Source) Candidate {
	keys := make([]string, len(ws))
	for i, w := range ws {
		keys[i] = w.key
	}
	return Candidate{
		Text:   text[ws[0].start:ws[len(ws)-1].end],
		Key:    strings.Join(keys, " "),
		Source: src,
	}
}

// keysOf tokenizes a phrase and flattens it to word keys.
func keysOf(phrase string) []string {
	var out []string
	for _, seg := range tokenize(phrase) {
		for _, w := range seg {
			out = append(out, w.key)
		}
	}
	return out
}
