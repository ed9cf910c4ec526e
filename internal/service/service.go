// Package service wires the normalizer to the review log. Transports (CLI,
// HTTP, MCP) call into a Service and hold no logic of their own.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rcliao/symptom-catalog/internal/catalog"
	"github.com/rcliao/symptom-catalog/internal/model"
	"github.com/rcliao/symptom-catalog/internal/normalizer"
	"github.com/rcliao/symptom-catalog/internal/store"
)

var (
	// ErrReviewLog wraps failures of the review log. The catalog side of the
	// operation already succeeded when it is returned.
	ErrReviewLog = errors.New("review log write failed")
	// ErrReviewsDisabled is returned by review queries when no log is configured.
	ErrReviewsDisabled = errors.New("review log is disabled")
)

// ApproveParams is a human decision on an unknown mention.
type ApproveParams struct {
	Mention  string `json:"mention"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Service is the application facade.
type Service struct {
	norm    *normalizer.Normalizer
	reviews store.Store
	logger  *zap.Logger
}

// New returns a Service. reviews may be nil to run without a review log.
func New(norm *normalizer.Normalizer, reviews store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{norm: norm, reviews: reviews, logger: logger}
}

// Catalog returns the live catalog.
func (s *Service) Catalog() *catalog.Catalog { return s.norm.Catalog() }

// ReviewsEnabled reports whether a review log is attached.
func (s *Service) ReviewsEnabled() bool { return s.reviews != nil }

// Extract runs one extraction and logs its unknown mentions for review.
// On a review log failure the result is still returned alongside an error
// matching ErrReviewLog.
func (s *Service) Extract(ctx context.Context, transcript string) (model.ExtractionResult, error) {
	result, err := s.norm.Extract(transcript)
	if err != nil {
		return result, err
	}
	if s.reviews == nil || len(result.Unknown) == 0 {
		return result, nil
	}

	if _, err := s.reviews.RecordUnknowns(ctx, store.RecordParams{
		Mentions:   result.Unknown,
		Transcript: transcript,
	}); err != nil {
		s.logger.Error("record unknown mentions", zap.Int("unknown", len(result.Unknown)), zap.Error(err))
		return result, fmt.Errorf("%w: %w", ErrReviewLog, err)
	}
	return result, nil
}

// Approve adds mention to the catalog under code and marks it resolved in
// the review log.
func (s *Service) Approve(ctx context.Context, p ApproveParams) (model.Symptom, error) {
	sym, err := s.norm.Approve(p.Mention, p.Code, p.Name, p.Category)
	if err != nil {
		return model.Symptom{}, err
	}
	s.logger.Info("symptom approved", zap.String("code", sym.Code), zap.Int("aliases", len(sym.Aliases)))

	if s.reviews == nil {
		return sym, nil
	}
	if _, err := s.reviews.Resolve(ctx, store.ResolveParams{Mention: p.Mention, Code: sym.Code}); err != nil {
		s.logger.Error("resolve review item", zap.String("code", sym.Code), zap.Error(err))
		return sym, fmt.Errorf("%w: %w", ErrReviewLog, err)
	}
	return sym, nil
}

// PeekLastUnknowns returns the unknown mentions of the latest extraction.
func (s *Service) PeekLastUnknowns() []string {
	return s.norm.PeekLastUnknowns()
}

// Reviews lists logged unknown mentions.
func (s *Service) Reviews(ctx context.Context, p store.ListParams) ([]model.ReviewItem, error) {
	if s.reviews == nil {
		return nil, ErrReviewsDisabled
	}
	return s.reviews.List(ctx, p)
}

// Reload re-reads the catalog file.
func (s *Service) Reload() error {
	return s.norm.Reload()
}

// Lookup resolves a phrase against the catalog.
func (s *Service) Lookup(phrase string) (model.Symptom, bool) {
	return s.norm.Catalog().Lookup(phrase)
}
