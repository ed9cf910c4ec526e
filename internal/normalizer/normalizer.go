// Package normalizer turns a transcript into validated symptoms and unknown
// mentions, and records human approvals back into the catalog.
package normalizer

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/rcliao/symptom-catalog/internal/catalog"
	"github.com/rcliao/symptom-catalog/internal/extractor"
	"github.com/rcliao/symptom-catalog/internal/metrics"
	"github.com/rcliao/symptom-catalog/internal/model"
	"github.com/rcliao/symptom-catalog/internal/textnorm"
)

// Normalizer owns one catalog and the cached unknowns of its latest run.
//
// Extract may run concurrently with itself and with Approve. The cached
// unknowns are last-writer-wins: callers sharing one Normalizer see whichever
// extraction finished last. Give each session its own Normalizer when that
// matters; they can share the Catalog.
type Normalizer struct {
	cat     *catalog.Catalog
	ext     *extractor.Extractor
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu          sync.RWMutex
	lastUnknown []string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithMetrics sets the metrics sink. Nil disables metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(n *Normalizer) { n.metrics = m }
}

// WithExtractorOptions replaces the default extractor options.
func WithExtractorOptions(o extractor.Options) Option {
	return func(n *Normalizer) { n.ext = extractor.New(o) }
}

// New returns a Normalizer over cat.
func New(cat *catalog.Catalog, opts ...Option) *Normalizer {
	n := &Normalizer{
		cat:    cat,
		ext:    extractor.New(extractor.DefaultOptions()),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.metrics.SetCatalogSize(cat.Len())
	return n
}

// Catalog returns the underlying catalog.
func (n *Normalizer) Catalog() *catalog.Catalog { return n.cat }

// Extract partitions the candidate phrases of transcript into catalog-backed
// symptoms and unknown mentions.
//
// Every candidate is resolved against one catalog snapshot first. Validated
// symptoms are deduplicated by code in first-seen order. Unknown mentions
// come only from trigger-pattern candidates; unmatched n-grams are dropped.
// An unmatched phrase whose words contain, or are contained in, the words of
// a validated phrase is suppressed, so "chest" never shows up as unknown
// next to a validated "chest pain".
func (n *Normalizer) Extract(transcript string) (model.ExtractionResult, error) {
	start := time.Now()
	if strings.TrimSpace(transcript) == "" {
		n.metrics.ObserveExtraction("empty_input", 0, 0, time.Since(start))
		return model.ExtractionResult{}, ErrEmptyInput
	}

	snap := n.cat.Snapshot()
	result := model.ExtractionResult{
		Validated: []model.ValidatedSymptom{},
		Unknown:   []string{},
	}

	var (
		matched    [][]string
		unresolved []extractor.Candidate
		codes      = make(map[string]bool)
		candidates int
	)
	for c := range n.ext.All(transcript) {
		candidates++
		s, ok := snap.LookupKey(c.Key)
		if !ok {
			if c.Source == extractor.SourcePattern {
				unresolved = append(unresolved, c)
			}
			continue
		}
		matched = append(matched, strings.Fields(c.Key))
		if codes[s.Code] {
			continue
		}
		codes[s.Code] = true
		result.Validated = append(result.Validated, model.ValidatedSymptom{
			Code:     s.Code,
			Name:     s.Name,
			Category: s.Category,
		})
		n.logger.Debug("candidate matched", zap.String("phrase", c.Text), zap.String("code", s.Code))
	}

	for _, c := range unresolved {
		words := strings.Fields(c.Key)
		if slices.ContainsFunc(matched, func(m []string) bool { return textnorm.Overlaps(words, m) }) {
			continue
		}
		result.Unknown = append(result.Unknown, c.Text)
	}

	n.mu.Lock()
	n.lastUnknown = slices.Clone(result.Unknown)
	n.mu.Unlock()

	n.metrics.ObserveExtraction("ok", result.SymptomCount(), result.UnknownCount(), time.Since(start))
	n.logger.Info("extraction complete",
		zap.Int("transcript_runes", utf8.RuneCountInString(transcript)),
		zap.Int("candidates", candidates),
		zap.Int("validated", result.SymptomCount()),
		zap.Int("unknown", result.UnknownCount()),
		zap.Duration("took", time.Since(start)),
	)
	return result, nil
}

// PeekLastUnknowns returns a copy of the unknown mentions from the most
// recent successful Extract, or nil before the first one.
func (n *Normalizer) PeekLastUnknowns() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.lastUnknown)
}

// approvalLabels maps approval errors to metric labels.
var approvalLabels = map[error]string{
	ErrInvalidInput:             "invalid_input",
	catalog.ErrDuplicateAlias:   "duplicate_alias",
	catalog.ErrPersistenceWrite: "persistence_error",
}

// Approve binds mention to code, creating the entry or updating its name and
// category. The next Extract observes the new mapping.
func (n *Normalizer) Approve(mention, code, name, category string) (model.Symptom, error) {
	s, err := n.approve(mention, code, name, category)
	n.metrics.ObserveApproval(metrics.ResultLabel(err, approvalLabels))
	if err != nil {
		n.logger.Warn("approval rejected", zap.String("code", code), zap.Error(err))
		return model.Symptom{}, err
	}
	n.metrics.SetCatalogSize(n.cat.Len())
	return s, nil
}

func (n *Normalizer) approve(mention, code, name, category string) (model.Symptom, error) {
	mention = strings.TrimSpace(mention)
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	category = strings.TrimSpace(category)

	fields := []struct {
		field, value string
		alias        bool
	}{
		{"mention", mention, true},
		{"code", code, false},
		{"name", name, true},
		{"category", category, false},
	}
	for _, f := range fields {
		if err := checkField(f.field, f.value, f.alias); err != nil {
			return model.Symptom{}, err
		}
	}
	if !model.ValidCode(code) {
		return model.Symptom{}, &InvalidInputError{Field: "code", Reason: "must be S followed by digits, like S00031"}
	}
	return n.cat.Append(code, name, []string{mention}, category)
}

// checkField rejects empty values and characters the catalog file cannot
// hold: the CSV delimiter, quotes and line breaks, plus the alias separator
// for values stored in the aliases column. Names and aliases also need at
// least one word, or they could never be matched.
func checkField(field, value string, alias bool) error {
	if value == "" {
		return &InvalidInputError{Field: field, Reason: "must not be empty"}
	}
	bad := ",\"\r\n"
	if alias {
		bad += catalog.AliasSeparator
	}
	if i := strings.IndexAny(value, bad); i >= 0 {
		return &InvalidInputError{Field: field, Reason: fmt.Sprintf("must not contain %q", value[i:i+1])}
	}
	if alias && textnorm.WordKey(value) == "" {
		return &InvalidInputError{Field: field, Reason: "must contain a letter or digit"}
	}
	return nil
}

// Reload re-reads the catalog file.
func (n *Normalizer) Reload() error {
	err := n.cat.Reload()
	n.metrics.ObserveReload(err)
	if err != nil {
		n.logger.Error("catalog reload failed, keeping previous catalog", zap.Error(err))
		return err
	}
	n.metrics.SetCatalogSize(n.cat.Len())
	return nil
}
