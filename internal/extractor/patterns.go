package extractor

// Trigger anchors a lexical pattern. A leading trigger captures the words
// after it; a trailing trigger captures the words before it ("my knee
// hurts").
type Trigger struct {
	Phrase   string
	Trailing bool
}

// DefaultTriggers returns the built-in trigger table, applied in order.
func DefaultTriggers() []Trigger {
	leading := []string{
		"i have", "i have had", "i have been having", "i've", "i've got", "i've had",
		"i had", "has", "have been having",
		"i feel", "i'm feeling", "i am feeling", "i felt", "feeling", "feels",
		"experiencing", "experienced",
		"complains of", "complaining of", "complained of",
		"suffering from", "reports", "reported", "presenting with", "presents with",
		"pain in", "ache in", "discomfort in", "tightness in", "pressure in",
		"swelling in", "numbness in",
		"severe", "sharp", "dull", "mild", "chronic",
	}
	trailing := []string{
		"hurts", "hurt", "aches", "ache", "is sore", "are sore",
		"is painful", "is swollen", "are swollen", "feels sore",
	}

	out := make([]Trigger, 0, len(leading)+len(trailing))
	for _, p := range leading {
		out = append(out, Trigger{Phrase: p})
	}
	for _, p := range trailing {
		out = append(out, Trigger{Phrase: p, Trailing: true})
	}
	return out
}

// fillers are skipped at the start of a captured phrase only.
var fillers = setOf(
	"a", "an", "the", "my", "his", "her", "their", "your", "our",
	"some", "any", "this", "that", "these", "those",
	"also", "really", "just", "very", "quite", "extremely", "slightly", "somewhat", "pretty",
	"kind", "sort", "of", "bit", "little", "lot",
	"been", "had", "got", "having", "feeling", "experiencing", "suffering",
	"severe", "sharp", "dull", "mild", "chronic", "constant", "bad", "terrible", "awful",
)

// continuers end a phrase but let the same trigger capture another one.
var continuers = setOf("and", "or")

// stops end a phrase and the capture.
var stops = setOf(
	// conjunctions
	"but", "so", "because", "although", "though", "while", "when", "since",
	"which", "that", "who", "if", "then", "until", "as", "whereas", "nor", "yet",
	// prepositions
	"in", "on", "at", "with", "for", "from", "after", "during", "over", "under",
	"near", "around", "into", "to", "about", "by", "through", "across", "behind",
	"above", "below", "before", "without", "within", "along",
	// time and frequency
	"today", "tonight", "yesterday", "now", "lately", "recently", "again",
	"sometimes", "always", "often", "every", "all", "constantly",
	// verbs that start a new clause
	"is", "was", "are", "were", "it's", "started", "began", "get", "gets",
)

// pronouns end a capture; after "and"/"or" they mean a new clause began.
var pronouns = setOf("i", "he", "she", "it", "we", "they", "you", "me", "him", "them", "us")

func setOf(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

func ends(key string) bool {
	return continuers[key] || stops[key] || pronouns[key]
}

// compiled is a trigger split into word keys.
type compiled struct {
	keys     []string
	trailing bool
}

func compile(triggers []Trigger) []compiled {
	out := make([]compiled, 0, len(triggers))
	for _, t := range triggers {
		keys := keysOf(t.Phrase)
		if len(keys) == 0 {
			continue
		}
		out = append(out, compiled{keys: keys, trailing: t.Trailing})
	}
	return out
}

func (c compiled) matchAt(seg segment, i int) bool {
	if i+len(c.keys) > len(seg) {
		return false
	}
	for j, k := range c.keys {
		if seg[i+j].key != k {
			return false
		}
	}
	return true
}

// patterns runs every trigger over every segment, in table order.
func (e *Extractor) patterns(text string, segs []segment, yield func(Candidate) bool) bool {
	for _, trig := range e.triggers {
		for _, seg := range segs {
			for i := range seg {
				if !trig.matchAt(seg, i) {
					continue
				}
				var ok bool
				if trig.trailing {
					ok = e.captureBefore(text, seg, i, yield)
				} else {
					ok = e.captureAfter(text, seg, i+len(trig.keys), yield)
				}
				if !ok {
					return false
				}
			}
		}
	}
	return true
}

// captureAfter collects phrases starting at seg[i]. Each phrase skips leading
// fillers and takes up to MaxPhraseWords words before a stop. After "and" or
// "or" capture resumes unless a pronoun follows.
func (e *Extractor) captureAfter(text string, seg segment, i int, yield func(Candidate) bool) bool {
	for i < len(seg) {
		for i < len(seg) && fillers[seg[i].key] {
			i++
		}
		start := i
		for i < len(seg) && i-start < e.opts.MaxPhraseWords && !ends(seg[i].key) {
			i++
		}
		if i > start {
			if !yield(phraseOf(text, seg[start:i], SourcePattern)) {
				return false
			}
		}
		if i >= len(seg) || !continuers[seg[i].key] {
			return true
		}
		i++ // past "and"/"or"
		if i < len(seg) && pronouns[seg[i].key] {
			return true
		}
	}
	return true
}

// captureBefore collects the words right before seg[i], walking back until a
// filler, stop or pronoun.
func (e *Extractor) captureBefore(text string, seg segment, i int, yield func(Candidate) bool) bool {
	start := i
	for start > 0 && i-start < e.opts.MaxPhraseWords {
		k := seg[start-1].key
		if fillers[k] || ends(k) {
			break
		}
		start--
	}
	if start == i {
		return true
	}
	return yield(phraseOf(text, seg[start:i], SourcePattern))
}
