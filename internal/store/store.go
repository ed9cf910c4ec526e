// Package store persists the review log of unknown symptom mentions in
// SQLite. Each distinct mention (by normalized text) is one row that counts
// how often it was seen and whether a human has approved it yet.
package store

import (
	"context"
	"errors"

	"github.com/rcliao/symptom-catalog/internal/model"
)

// ErrNotFound is returned when no row matches a mention.
var ErrNotFound = errors.New("review item not found")

// RecordParams holds the unknown mentions of one extraction.
type RecordParams struct {
	Mentions   []string
	Transcript string // only the first ContextRunes runes are kept
}

// ListParams holds parameters for listing review items.
type ListParams struct {
	Status string // "" lists every status
	Limit  int
}

// ResolveParams binds a mention to the catalog code it was approved under.
type ResolveParams struct {
	Mention string
	Code    string
}

// Store defines the review log interface.
type Store interface {
	// RecordUnknowns inserts new mentions and bumps the counters of known
	// ones. Returns the affected rows in input order.
	RecordUnknowns(ctx context.Context, p RecordParams) ([]model.ReviewItem, error)

	// List returns items, most recently seen first.
	List(ctx context.Context, p ListParams) ([]model.ReviewItem, error)

	// Get returns the item for a mention.
	Get(ctx context.Context, mention string) (*model.ReviewItem, error)

	// Resolve marks a mention approved, creating the row if needed.
	Resolve(ctx context.Context, p ResolveParams) (*model.ReviewItem, error)

	// Close closes the store.
	Close() error
}
