package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rcliao/symptom-catalog/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordUnknowns(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	items, err := s.RecordUnknowns(ctx, RecordParams{
		Mentions:   []string{"weird tingling", "Foggy Head"},
		Transcript: "I have weird tingling and a foggy head",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	for _, it := range items {
		if it.ID == "" {
			t.Error("expected non-empty ID")
		}
		if it.SeenCount != 1 {
			t.Errorf("%q: expected seen_count 1, got %d", it.Mention, it.SeenCount)
		}
		if it.Status != model.ReviewPending {
			t.Errorf("%q: expected pending, got %q", it.Mention, it.Status)
		}
		if it.FirstSeenAt.IsZero() || it.LastSeenAt.IsZero() {
			t.Errorf("%q: expected timestamps", it.Mention)
		}
	}
	if items[1].Mention != "Foggy Head" {
		t.Errorf("expected original casing kept, got %q", items[1].Mention)
	}
}

func TestRecordUnknowns_BumpsExisting(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, _ := s.RecordUnknowns(ctx, RecordParams{Mentions: []string{"weird tingling"}, Transcript: "first"})
	second, err := s.RecordUnknowns(ctx, RecordParams{Mentions: []string{"Weird  Tingling"}, Transcript: "second"})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	got := second[0]
	if got.ID != first[0].ID {
		t.Errorf("expected same row, got %s and %s", first[0].ID, got.ID)
	}
	if got.SeenCount != 2 {
		t.Errorf("expected seen_count 2, got %d", got.SeenCount)
	}
	if got.Mention != "weird tingling" {
		t.Errorf("expected first spelling kept, got %q", got.Mention)
	}
	if got.Context != "second" {
		t.Errorf("expected latest context, got %q", got.Context)
	}
	if !got.FirstSeenAt.Equal(first[0].FirstSeenAt) {
		t.Error("first_seen_at should not move")
	}
	if got.LastSeenAt.Before(first[0].LastSeenAt) {
		t.Error("last_seen_at should not go backwards")
	}
}

func TestRecordUnknowns_ContextTruncated(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	transcript := strings.Repeat("é", ContextRunes+50)
	items, err := s.RecordUnknowns(ctx, RecordParams{Mentions: []string{"x"}, Transcript: transcript})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if n := len([]rune(items[0].Context)); n != ContextRunes {
		t.Errorf("expected %d runes of context, got %d", ContextRunes, n)
	}
}

func TestRecordUnknowns_Empty(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	items, err := s.RecordUnknowns(ctx, RecordParams{})
	if err != nil || items != nil {
		t.Fatalf("expected nil, nil; got %v, %v", items, err)
	}
	items, err = s.RecordUnknowns(ctx, RecordParams{Mentions: []string{"  ", ""}})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("blank mentions should be skipped, got %d", len(items))
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.RecordUnknowns(ctx, RecordParams{Mentions: []string{"alpha"}})
	s.RecordUnknowns(ctx, RecordParams{Mentions: []string{"beta"}})
	s.RecordUnknowns(ctx, RecordParams{Mentions: []string{"gamma"}})
	s.Resolve(ctx, ResolveParams{Mention: "beta", Code: "S00031"})

	all, err := s.List(ctx, ListParams{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3, got %d", len(all))
	}
	if all[0].Mention != "gamma" || all[2].Mention != "alpha" {
		t.Errorf("expected most recent first, got %s..%s", all[0].Mention, all[2].Mention)
	}

	pending, _ := s.List(ctx, ListParams{Status: model.ReviewPending})
	if len(pending) != 2 {
		t.Errorf("expected 2 pending, got %d", len(pending))
	}
	approved, _ := s.List(ctx, ListParams{Status: model.ReviewApproved})
	if len(approved) != 1 || approved[0].ResolvedCode != "S00031" {
		t.Errorf("expected beta approved as S00031, got %+v", approved)
	}

	limited, _ := s.List(ctx, ListParams{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("expected 1 with limit, got %d", len(limited))
	}

	if _, err := s.List(ctx, ListParams{Status: "rejected"}); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "nothing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.RecordUnknowns(ctx, RecordParams{Mentions: []string{"weird tingling"}})
	s.RecordUnknowns(ctx, RecordParams{Mentions: []string{"weird tingling"}})

	it, err := s.Resolve(ctx, ResolveParams{Mention: "Weird Tingling", Code: "S00031"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if it.Status != model.ReviewApproved || it.ResolvedCode != "S00031" {
		t.Errorf("expected approved as S00031, got %s/%s", it.Status, it.ResolvedCode)
	}
	if it.ResolvedAt == nil {
		t.Error("expected resolved_at")
	}
	if it.SeenCount != 2 {
		t.Errorf("resolve should keep seen_count, got %d", it.SeenCount)
	}

	// later sightings keep the approval
	again, _ := s.RecordUnknowns(ctx, RecordParams{Mentions: []string{"weird tingling"}})
	if again[0].Status != model.ReviewApproved {
		t.Errorf("expected approval to stick, got %s", again[0].Status)
	}
}

func TestResolve_CreatesRow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	it, err := s.Resolve(ctx, ResolveParams{Mention: "brain fog", Code: "S00032"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if it.SeenCount != 0 {
		t.Errorf("expected seen_count 0 for a never-seen mention, got %d", it.SeenCount)
	}

	if _, err := s.Resolve(ctx, ResolveParams{Mention: " ", Code: "S00032"}); err == nil {
		t.Error("expected error for blank mention")
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.RecordUnknowns(ctx, RecordParams{Mentions: []string{"alpha", "beta"}})
	s.RecordUnknowns(ctx, RecordParams{Mentions: []string{"beta"}})
	s.Resolve(ctx, ResolveParams{Mention: "alpha", Code: "S00031"})

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Total != 2 {
		t.Errorf("expected total 2, got %d", st.Total)
	}
	if st.Sightings != 3 {
		t.Errorf("expected 3 sightings, got %d", st.Sightings)
	}
	if len(st.ByStatus) != 2 {
		t.Errorf("expected 2 statuses, got %+v", st.ByStatus)
	}
	if len(st.TopPending) != 1 || st.TopPending[0].Mention != "beta" || st.TopPending[0].SeenCount != 2 {
		t.Errorf("unexpected top pending: %+v", st.TopPending)
	}
	if st.DBSizeBytes == 0 {
		t.Error("expected non-zero db size")
	}
}

func TestNewSQLiteStore_CreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "reviews.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("expected db dir to exist: %v", err)
	}
	if s.Path() != path {
		t.Errorf("expected path %s, got %s", path, s.Path())
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reviews.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	s.RecordUnknowns(ctx, RecordParams{Mentions: []string{"weird tingling"}})
	s.Close()

	s2, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	if _, err := s2.Get(ctx, "weird tingling"); err != nil {
		t.Errorf("expected row after reopen: %v", err)
	}
}
