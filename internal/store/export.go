package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rcliao/symptom-catalog/internal/model"
)

// LogHeader is the column layout of the flat unknown-symptom review log.
var LogHeader = []string{"Timestamp", "Unknown_Symptom", "Context_Transcript", "Status"}

const (
	logTimeFormat    = time.DateTime
	logStatusPending = "Pending Review"
)

// ExportCSV writes every review item in the flat log layout, oldest first.
func (s *SQLiteStore) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	items, err := s.query(ctx, `SELECT `+selectColumns+` FROM unknown_mentions ORDER BY first_seen_at, id`)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(LogHeader); err != nil {
		return 0, err
	}
	for _, it := range items {
		if err := cw.Write([]string{
			it.LastSeenAt.Local().Format(logTimeFormat),
			it.Mention,
			it.Context,
			logStatus(it),
		}); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(items), cw.Error()
}

// ImportCSV records every row of a flat review log as one sighting.
// Rows whose status reads "Approved as <code>" are resolved as well.
func (s *SQLiteStore) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(LogHeader)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	if !strings.EqualFold(strings.TrimSpace(header[1]), LogHeader[1]) {
		return 0, fmt.Errorf("unexpected header %q", strings.Join(header, ","))
	}

	imported := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, err
		}
		mention := strings.TrimSpace(row[1])
		if mention == "" {
			continue
		}
		if _, err := s.RecordUnknowns(ctx, RecordParams{Mentions: []string{mention}, Transcript: row[2]}); err != nil {
			return imported, err
		}
		if code, ok := strings.CutPrefix(strings.TrimSpace(row[3]), "Approved as "); ok && model.ValidCode(code) {
			if _, err := s.Resolve(ctx, ResolveParams{Mention: mention, Code: code}); err != nil {
				return imported, err
			}
		}
		imported++
	}
	return imported, nil
}

func logStatus(it model.ReviewItem) string {
	if it.Status == model.ReviewApproved && it.ResolvedCode != "" {
		return "Approved as " + it.ResolvedCode
	}
	return logStatusPending
}
