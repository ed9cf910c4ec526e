// Package extractor proposes candidate symptom phrases from free text.
//
// Two independent passes feed the result: a table of trigger patterns
// ("i have", "pain in", "my ... hurts") and a sweep of every 1 to 4 word
// n-gram. The extractor is deliberately generous; deciding which candidates
// matter is left to the catalog lookup downstream.
package extractor

import (
	"iter"
	"slices"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultMaxInputRunes  = 10000
	DefaultMinNGram       = 1
	DefaultMaxNGram       = 4
	DefaultMaxPhraseWords = 4
)

// Source says which pass produced a candidate.
type Source string

const (
	SourcePattern Source = "pattern"
	SourceNGram   Source = "ngram"
)

// Candidate is a phrase proposed from the text. Text is the original span,
// Key its normalized form.
type Candidate struct {
	Text   string
	Key    string
	Source Source
}

// Options configures extraction. Zero fields take their defaults.
type Options struct {
	MaxInputRunes  int
	MinNGram       int
	MaxNGram       int
	MaxPhraseWords int
	Triggers       []Trigger
}

// DefaultOptions returns default extraction options.
func DefaultOptions() Options {
	return Options{
		MaxInputRunes:  DefaultMaxInputRunes,
		MinNGram:       DefaultMinNGram,
		MaxNGram:       DefaultMaxNGram,
		MaxPhraseWords: DefaultMaxPhraseWords,
		Triggers:       DefaultTriggers(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxInputRunes <= 0 {
		o.MaxInputRunes = d.MaxInputRunes
	}
	if o.MinNGram <= 0 {
		o.MinNGram = d.MinNGram
	}
	if o.MaxNGram <= 0 {
		o.MaxNGram = d.MaxNGram
	}
	if o.MaxNGram < o.MinNGram {
		o.MaxNGram = o.MinNGram
	}
	if o.MaxPhraseWords <= 0 {
		o.MaxPhraseWords = d.MaxPhraseWords
	}
	if o.Triggers == nil {
		o.Triggers = d.Triggers
	}
	return o
}

// Extractor is safe for concurrent use; it holds no per-call state.
type Extractor struct {
	opts     Options
	triggers []compiled
}

// New returns an Extractor for opts.
func New(opts Options) *Extractor {
	opts = opts.withDefaults()
	return &Extractor{opts: opts, triggers: compile(opts.Triggers)}
}

// Options returns the effective options.
func (e *Extractor) Options() Options { return e.opts }

// All yields pattern candidates, then n-gram candidates, skipping any whose
// Key was already yielded. Each range over the sequence starts afresh.
func (e *Extractor) All(text string) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		text := Truncate(text, e.opts.MaxInputRunes)
		segs := tokenize(text)
		seen := make(map[string]bool)
		emit := func(c Candidate) bool {
			if seen[c.Key] {
				return true
			}
			seen[c.Key] = true
			return yield(c)
		}
		if !e.patterns(text, segs, emit) {
			return
		}
		e.ngrams(text, segs, emit)
	}
}

// Extract collects All into a slice.
func (e *Extractor) Extract(text string) []Candidate {
	return slices.Collect(e.All(text))
}

// Patterns returns trigger-pattern candidates only, without deduplication.
func (e *Extractor) Patterns(text string) []Candidate {
	var out []Candidate
	text = Truncate(text, e.opts.MaxInputRunes)
	e.patterns(text, tokenize(text), func(c Candidate) bool {
		out = append(out, c)
		return true
	})
	return out
}

// NGrams lazily yields every n-gram inside each clause segment, by start
// position and then by length.
func (e *Extractor) NGrams(text string) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		text := Truncate(text, e.opts.MaxInputRunes)
		e.ngrams(text, tokenize(text), yield)
	}
}

func (e *Extractor) ngrams(text string, segs []segment, yield func(Candidate) bool) bool {
	for _, seg := range segs {
		for i := range seg {
			for n := e.opts.MinNGram; n <= e.opts.MaxNGram && i+n <= len(seg); n++ {
				if !yield(phraseOf(text, seg[i:i+n], SourceNGram)) {
					return false
				}
			}
		}
	}
	return true
}

// Truncate cuts text to at most limit runes. A cut that would split a word
// backs off to the preceding whitespace when there is any.
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	cut := 0
	for n := 0; n < limit; n++ {
		_, size := utf8.DecodeRuneInString(text[cut:])
		cut += size
	}
	next, _ := utf8.DecodeRuneInString(text[cut:])
	if unicode.IsSpace(next) {
		return text[:cut]
	}
	for i := cut; i > 0; {
		r, size := utf8.DecodeLastRuneInString(text[:i])
		if unicode.IsSpace(r) {
			return text[:i-size]
		}
		i -= size
	}
	return text[:cut]
}
