// Package catalog holds the controlled symptom vocabulary: a CSV file of
// code, name, aliases and category rows, with an in-memory alias index for
// exact lookups.
//
// Readers never lock. Every successful load or Append publishes a new
// immutable Snapshot through an atomic pointer, so a reader sees either the
// whole old catalog or the whole new one. Writers serialize on a mutex that
// covers building the new state, rewriting the file and publishing.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/rcliao/symptom-catalog/internal/model"
	"github.com/rcliao/symptom-catalog/internal/textnorm"
)

// Snapshot is an immutable view of the catalog at one point in time.
type Snapshot struct {
	entries []model.Symptom
	byCode  map[string]int
	index   map[string]string // textnorm.WordKey of name or alias -> code
}

// Lookup resolves phrase by exact match, after normalization, against every
// name and alias.
func (s *Snapshot) Lookup(phrase string) (model.Symptom, bool) {
	return s.LookupKey(textnorm.WordKey(phrase))
}

// LookupKey resolves a key already in textnorm.WordKey form.
func (s *Snapshot) LookupKey(key string) (model.Symptom, bool) {
	code, ok := s.index[key]
	if !ok {
		return model.Symptom{}, false
	}
	return s.entries[s.byCode[code]].Clone(), true
}

// Owner returns the code a phrase resolves to, if any.
func (s *Snapshot) Owner(phrase string) (string, bool) {
	code, ok := s.index[textnorm.WordKey(phrase)]
	return code, ok
}

// Get returns the entry for code.
func (s *Snapshot) Get(code string) (model.Symptom, bool) {
	i, ok := s.byCode[code]
	if !ok {
		return model.Symptom{}, false
	}
	return s.entries[i].Clone(), true
}

// Entries returns copies of all entries in file order.
func (s *Snapshot) Entries() []model.Symptom {
	out := make([]model.Symptom, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Clone()
	}
	return out
}

// Len returns the number of entries.
func (s *Snapshot) Len() int { return len(s.entries) }

// Mappings returns the number of distinct lookup strings.
func (s *Snapshot) Mappings() int { return len(s.index) }

// conflict is an alias that two rows of a loaded file both claim.
type conflict struct {
	alias, owner, loser string
}

func newSnapshot(entries []model.Symptom) (*Snapshot, []conflict) {
	s := &Snapshot{
		entries: entries,
		byCode:  make(map[string]int, len(entries)),
		index:   make(map[string]string, len(entries)*2),
	}
	var conflicts []conflict
	for i, e := range entries {
		s.byCode[e.Code] = i
		for _, phrase := range append([]string{e.Name}, e.Aliases...) {
			k := textnorm.WordKey(phrase)
			if k == "" {
				continue
			}
			if owner, taken := s.index[k]; taken {
				if owner != e.Code {
					conflicts = append(conflicts, conflict{alias: phrase, owner: owner, loser: e.Code})
				}
				continue
			}
			s.index[k] = e.Code
		}
	}
	return s, conflicts
}

// Catalog is the vocabulary bound to one file path.
type Catalog struct {
	path   string
	logger *zap.Logger

	mu   sync.Mutex // serializes Append and Reload
	snap atomic.Pointer[Snapshot]
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

// Open loads the catalog file at path. A missing or malformed file returns a
// *LoadError.
func Open(path string, opts ...Option) (*Catalog, error) {
	c := &Catalog{path: path, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	snap, err := c.load()
	if err != nil {
		return nil, err
	}
	c.snap.Store(snap)
	return c, nil
}

func (c *Catalog) load() (*Snapshot, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, &LoadError{Path: c.path, Err: err}
	}
	defer f.Close()

	entries, err := Parse(f)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = c.path
			return nil, le
		}
		return nil, &LoadError{Path: c.path, Err: err}
	}

	snap, conflicts := newSnapshot(entries)
	for _, cf := range conflicts {
		c.logger.Warn("alias bound to two codes, keeping first",
			zap.String("alias", cf.alias),
			zap.String("kept", cf.owner),
			zap.String("ignored", cf.loser),
		)
	}
	c.logger.Info("catalog loaded",
		zap.String("path", c.path),
		zap.Int("symptoms", snap.Len()),
		zap.Int("mappings", snap.Mappings()),
	)
	return snap, nil
}

// Reload re-reads the file. On failure the previous catalog stays in place.
func (c *Catalog) Reload() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, err := c.load()
	if err != nil {
		return err
	}
	c.snap.Store(snap)
	return nil
}

// Snapshot returns the current immutable view.
func (c *Catalog) Snapshot() *Snapshot { return c.snap.Load() }

// Lookup resolves phrase against the current snapshot.
func (c *Catalog) Lookup(phrase string) (model.Symptom, bool) {
	return c.Snapshot().Lookup(phrase)
}

// Get returns the entry for code.
func (c *Catalog) Get(code string) (model.Symptom, bool) {
	return c.Snapshot().Get(code)
}

// All returns every entry in file order.
func (c *Catalog) All() []model.Symptom { return c.Snapshot().Entries() }

// Len returns the number of entries.
func (c *Catalog) Len() int { return c.Snapshot().Len() }

// Path returns the backing file path.
func (c *Catalog) Path() string { return c.path }

// CategoryCount is the number of entries sharing a category.
type CategoryCount struct {
	Category string `json:"category" yaml:"category"`
	Count    int    `json:"count" yaml:"count"`
}

// Categories counts entries per category, largest first.
func (c *Catalog) Categories() []CategoryCount {
	return countCategories(c.Snapshot().entries)
}

func countCategories(entries []model.Symptom) []CategoryCount {
	counts := make(map[string]int)
	for _, e := range entries {
		counts[e.Category]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for cat, n := range counts {
		out = append(out, CategoryCount{Category: cat, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// NextCode returns the code after the highest numeric code in the catalog.
func (c *Catalog) NextCode() string {
	return nextCode(c.Snapshot().entries)
}

func nextCode(entries []model.Symptom) string {
	highest := 0
	for _, e := range entries {
		if n, err := strconv.Atoi(e.Code[1:]); err == nil && n > highest {
			highest = n
		}
	}
	return model.FormatCode(highest + 1)
}

// Append binds name and aliases to code and persists the catalog.
//
// A new code is inserted at the end. An existing code gets the union of its
// old and new aliases and takes the supplied name and category; a replaced
// name stays on as an alias. Binding a phrase that another code owns fails
// with *DuplicateAliasError. The file is rewritten before the new state is
// published; if that fails the result is a *PersistenceError and the catalog
// is unchanged.
func (c *Catalog) Append(code, name string, aliases []string, category string) (model.Symptom, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	category = strings.TrimSpace(category)
	if !model.ValidCode(code) {
		return model.Symptom{}, fmt.Errorf("%w: code %q", ErrInvalidEntry, code)
	}
	if textnorm.WordKey(name) == "" {
		return model.Symptom{}, fmt.Errorf("%w: name %q has no words", ErrInvalidEntry, name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.snap.Load()
	for _, phrase := range append([]string{name}, aliases...) {
		if owner, ok := cur.Owner(phrase); ok && owner != code {
			return model.Symptom{}, &DuplicateAliasError{Alias: strings.TrimSpace(phrase), Owner: owner, Requested: code}
		}
	}

	entries := slices.Clone(cur.entries)
	var updated model.Symptom
	if i, exists := cur.byCode[code]; exists {
		updated = merge(entries[i], name, aliases, category)
		entries[i] = updated
	} else {
		updated = merge(model.Symptom{Code: code}, name, aliases, category)
		entries = append(entries, updated)
	}

	if err := Save(c.path, entries); err != nil {
		c.logger.Error("catalog write failed",
			zap.String("path", c.path),
			zap.String("code", code),
			zap.Error(err),
		)
		return model.Symptom{}, &PersistenceError{Path: c.path, Err: err}
	}

	next, _ := newSnapshot(entries)
	c.snap.Store(next)
	c.logger.Info("catalog entry saved",
		zap.String("code", code),
		zap.String("name", name),
		zap.Int("aliases", len(updated.Aliases)),
	)
	return updated.Clone(), nil
}

// merge returns prev with name and category replaced and aliases added.
// prev is not modified.
func merge(prev model.Symptom, name string, aliases []string, category string) model.Symptom {
	out := model.Symptom{Code: prev.Code, Name: name, Category: category}

	have := make(map[string]bool)
	add := func(a string) {
		a = strings.TrimSpace(a)
		k := textnorm.WordKey(a)
		if k == "" || have[k] {
			return
		}
		have[k] = true
		out.Aliases = append(out.Aliases, a)
	}
	for _, a := range prev.Aliases {
		add(a)
	}
	if prev.Name != "" && textnorm.WordKey(prev.Name) != textnorm.WordKey(name) {
		add(prev.Name)
	}
	for _, a := range aliases {
		add(a)
	}
	return out
}
