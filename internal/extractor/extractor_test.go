package extractor

import (
	"slices"
	"strings"
	"testing"

	"github.com/rcliao/symptom-catalog/internal/textnorm"
)

func texts(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Text
	}
	return out
}

func TestPatterns(t *testing.T) {
	e := New(DefaultOptions())

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "conjunction splits and preposition stops",
			text: "I have chest pain and weird tingling in my arms. Also feeling very dizzy.",
			want: []string{"chest pain", "weird tingling", "dizzy"},
		},
		{
			name: "pronoun after and ends the capture",
			text: "I have a headache and I feel sick",
			want: []string{"headache", "sick"},
		},
		{
			name: "phrase capped at four words",
			text: "I have burning itchy red swollen flaky skin",
			want: []string{"burning itchy red swollen"},
		},
		{
			name: "trailing trigger",
			text: "My left knee hurts when I walk",
			want: []string{"left knee"},
		},
		{
			name: "curly apostrophe",
			text: "I’ve got a migraine",
			want: []string{"migraine", "migraine"},
		},
		{
			name: "no trigger",
			text: "The weather is nice today",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := texts(e.Patterns(tt.text))
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Patterns(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestPatterns_SourceAndKey(t *testing.T) {
	e := New(DefaultOptions())
	got := e.Patterns("Patient complains of Chest   Pain")
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %+v", len(got), got)
	}
	c := got[0]
	if c.Text != "Chest   Pain" {
		t.Errorf("Text = %q, want original span", c.Text)
	}
	if c.Key != "chest pain" {
		t.Errorf("Key = %q, want %q", c.Key, "chest pain")
	}
	if c.Source != SourcePattern {
		t.Errorf("Source = %q, want %q", c.Source, SourcePattern)
	}
}

func TestPatterns_CustomTriggers(t *testing.T) {
	e := New(Options{Triggers: []Trigger{{Phrase: "bothered by"}}})
	got := texts(e.Patterns("I have a cough but I am bothered by wheezing"))
	if !slices.Equal(got, []string{"wheezing"}) {
		t.Errorf("got %q", got)
	}
}

func TestNGrams_StayInsideSegments(t *testing.T) {
	e := New(DefaultOptions())
	got := texts(slices.Collect(e.NGrams("chest pain. dizzy")))
	want := []string{"chest", "chest pain", "pain", "dizzy"}
	if !slices.Equal(got, want) {
		t.Errorf("NGrams = %q, want %q", got, want)
	}
}

func TestNGrams_LengthBounds(t *testing.T) {
	e := New(Options{MinNGram: 2, MaxNGram: 3})
	for c := range e.NGrams("one two three four") {
		n := len(strings.Fields(c.Key))
		if n < 2 || n > 3 {
			t.Errorf("n-gram %q has %d words", c.Text, n)
		}
		if c.Source != SourceNGram {
			t.Errorf("Source = %q", c.Source)
		}
	}
}

func TestExtract_PatternsFirstThenDeduped(t *testing.T) {
	e := New(DefaultOptions())
	got := e.Extract("I have chest pain and weird tingling in my arms. Also feeling very dizzy.")

	if len(got) < 3 {
		t.Fatalf("expected at least 3 candidates, got %d", len(got))
	}
	for i, want := range []string{"chest pain", "weird tingling", "dizzy"} {
		if got[i].Key != want || got[i].Source != SourcePattern {
			t.Errorf("candidate %d = %+v, want pattern %q", i, got[i], want)
		}
	}

	seen := map[string]bool{}
	for _, c := range got {
		if seen[c.Key] {
			t.Errorf("duplicate key %q", c.Key)
		}
		seen[c.Key] = true
	}
	for _, k := range []string{"arms", "tingling in my arms", "very dizzy"} {
		if !seen[k] {
			t.Errorf("missing n-gram %q", k)
		}
	}
}

func TestExtract_FirstSpellingWins(t *testing.T) {
	e := New(DefaultOptions())
	got := e.Extract("Dizzy, dizzy")
	if len(got) != 1 || got[0].Text != "Dizzy" {
		t.Errorf("got %+v", got)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	e := New(DefaultOptions())
	text := "Complains of nausea and vomiting; my back aches."
	a, b := e.Extract(text), e.Extract(text)
	if !slices.Equal(a, b) {
		t.Errorf("two runs differ:\n%+v\n%+v", a, b)
	}
}

func TestAll_RestartableAndStoppable(t *testing.T) {
	e := New(DefaultOptions())
	seq := e.All("I feel feverish and tired")

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if !slices.Equal(first, second) {
		t.Errorf("second range differs")
	}

	n := 0
	for range seq {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("expected to stop after 2, got %d", n)
	}
}

func TestExtract_InputCap(t *testing.T) {
	e := New(Options{MaxInputRunes: 12})
	for _, c := range e.Extract("I have cough and fever") {
		if c.Key == "fever" {
			t.Errorf("fever lies beyond the cap but was extracted")
		}
	}

	long := strings.Repeat("chest pain ", 5000)
	got := New(DefaultOptions()).Extract(long)
	// chest, pain, and the two alternating orders at lengths 2 to 4.
	if len(got) != 8 {
		t.Errorf("repeated phrase should collapse to 8 distinct n-grams, got %d", len(got))
	}
}

func TestExtract_Empty(t *testing.T) {
	e := New(DefaultOptions())
	if got := e.Extract(""); len(got) != 0 {
		t.Errorf("expected nothing, got %+v", got)
	}
	if got := e.Extract(" ... !!! "); len(got) != 0 {
		t.Errorf("expected nothing, got %+v", got)
	}
}

func TestTokenize_Joiners(t *testing.T) {
	segs := tokenize("follow-up can't -dash trailing- x")
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	var keys []string
	for _, w := range segs[0] {
		keys = append(keys, w.key)
	}
	want := []string{"follow-up", "can't", "dash", "trailing", "x"}
	if !slices.Equal(keys, want) {
		t.Errorf("keys = %q, want %q", keys, want)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		text  string
		limit int
		want  string
	}{
		{"hello world", 100, "hello world"},
		{"hello world", 0, "hello world"},
		{"hello world", 8, "hello"},
		{"hello world", 6, "hello"},
		{"hello world", 5, "hello"},
		{"abcdef", 2, "ab"},
		{"héllo wörld", 9, "héllo"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.text, tt.limit); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.text, tt.limit, got, tt.want)
		}
	}
}

func TestExtract_KeyMatchesWordKeyOfText(t *testing.T) {
	e := New(DefaultOptions())
	inputs := []string{
		"I have tingling/numbness",
		"I have tingling & numbness",
		"I have tingling+numbness",
		"I have s.o.b. since Monday",
		"Complains of ＴＩＮＧＬＩＮＧ, can’t sleep",
		"pain in my lower-back | feels sore\nI feel nausea/vomiting",
	}
	for _, in := range inputs {
		for _, c := range e.Extract(in) {
			if got := textnorm.WordKey(c.Text); got != c.Key {
				t.Errorf("%q: WordKey(%q) = %q, candidate key %q", in, c.Text, got, c.Key)
			}
		}
	}
}

func TestPatterns_SymbolsInsidePhrase(t *testing.T) {
	e := New(DefaultOptions())
	tests := []struct {
		text, wantText, wantKey string
	}{
		{"I have nausea/vomiting", "nausea/vomiting", "nausea vomiting"},
		{"I have s.o.b.", "s.o.b", "s o b"},
		{"I have tingling & numbness", "tingling & numbness", "tingling numbness"},
	}
	for _, tt := range tests {
		got := e.Patterns(tt.text)
		if len(got) != 1 {
			t.Errorf("Patterns(%q) = %+v, want one candidate", tt.text, got)
			continue
		}
		if got[0].Text != tt.wantText || got[0].Key != tt.wantKey {
			t.Errorf("Patterns(%q) = %q/%q, want %q/%q", tt.text, got[0].Text, got[0].Key, tt.wantText, tt.wantKey)
		}
	}
}

func TestTokenize_LineBreaksAndPipesEndClauses(t *testing.T) {
	segs := tokenize("dizzy\nnauseous | tired")
	if len(segs) != 3 {
		t.Errorf("got %d segments, want 3: %+v", len(segs), segs)
	}
}
