// Package model defines the core symptom catalog data types.
package model

import (
	"fmt"
	"regexp"
	"slices"
	"time"
)

// Symptom is one entry of the controlled vocabulary.
type Symptom struct {
	Code     string   `json:"code" yaml:"code"`
	Name     string   `json:"name" yaml:"name"`
	Aliases  []string `json:"aliases" yaml:"aliases"`
	Category string   `json:"category" yaml:"category"`
}

// Clone returns a copy that shares no memory with s.
func (s Symptom) Clone() Symptom {
	s.Aliases = slices.Clone(s.Aliases)
	return s
}

// ValidatedSymptom is a catalog-backed mention found in a transcript. It
// carries only catalog data, never the surface text that matched.
type ValidatedSymptom struct {
	Code     string `json:"code" yaml:"code"`
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category" yaml:"category"`
}

// ExtractionResult is the outcome of one extraction run.
type ExtractionResult struct {
	Validated []ValidatedSymptom `json:"symptoms_present" yaml:"symptoms_present"`
	Unknown   []string           `json:"unknown_mentions" yaml:"unknown_mentions"`
}

// SymptomCount returns the number of validated symptoms.
func (r ExtractionResult) SymptomCount() int { return len(r.Validated) }

// UnknownCount returns the number of unknown mentions.
func (r ExtractionResult) UnknownCount() int { return len(r.Unknown) }

// Review statuses for logged unknown mentions.
const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
)

// ValidReviewStatuses are the allowed review statuses.
var ValidReviewStatuses = map[string]bool{
	ReviewPending:  true,
	ReviewApproved: true,
}

// ReviewItem is an unknown mention awaiting (or past) human adjudication.
type ReviewItem struct {
	ID           string     `json:"id" yaml:"id"`
	Mention      string     `json:"mention" yaml:"mention"`
	Context      string     `json:"context,omitempty" yaml:"context,omitempty"`
	SeenCount    int        `json:"seen_count" yaml:"seen_count"`
	FirstSeenAt  time.Time  `json:"first_seen_at" yaml:"first_seen_at"`
	LastSeenAt   time.Time  `json:"last_seen_at" yaml:"last_seen_at"`
	Status       string     `json:"status" yaml:"status"`
	ResolvedCode string     `json:"resolved_code,omitempty" yaml:"resolved_code,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty" yaml:"resolved_at,omitempty"`
}

var codePattern = regexp.MustCompile(`^S[0-9]+$`)

// ValidCode reports whether code looks like S00001.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// FormatCode renders n as a catalog code, zero-padded to five digits.
func FormatCode(n int) string {
	return fmt.Sprintf("S%05d", n)
}
