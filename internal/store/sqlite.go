package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/symptom-catalog/internal/model"
	"github.com/rcliao/symptom-catalog/internal/textnorm"
)

// ContextRunes is how much of the transcript is kept with a mention.
const ContextRunes = 200

// timeFormat has fixed-width fractions so stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

const defaultListLimit = 50

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string

	idMu    sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		path:    dbPath,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) newID(now time.Time) string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS unknown_mentions (
		id            TEXT PRIMARY KEY,
		mention_key   TEXT NOT NULL UNIQUE,
		mention       TEXT NOT NULL,
		context       TEXT,
		seen_count    INTEGER NOT NULL DEFAULT 1,
		first_seen_at TEXT NOT NULL,
		last_seen_at  TEXT NOT NULL,
		status        TEXT NOT NULL DEFAULT 'pending',
		resolved_code TEXT,
		resolved_at   TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_unknown_status ON unknown_mentions(status, last_seen_at DESC);
	CREATE INDEX IF NOT EXISTS idx_unknown_last_seen ON unknown_mentions(last_seen_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

const selectColumns = `id, mention, context, seen_count, first_seen_at, last_seen_at, status, resolved_code, resolved_at`

func (s *SQLiteStore) RecordUnknowns(ctx context.Context, p RecordParams) ([]model.ReviewItem, error) {
	if len(p.Mentions) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	ts := now.Format(timeFormat)
	excerpt := truncateRunes(p.Transcript, ContextRunes)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var keys []string
	for _, m := range p.Mentions {
		key := textnorm.Key(m)
		if key == "" {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO unknown_mentions (id, mention_key, mention, context, seen_count, first_seen_at, last_seen_at, status)
			 VALUES (?, ?, ?, ?, 1, ?, ?, ?)
			 ON CONFLICT(mention_key) DO UPDATE SET
			   seen_count = seen_count + 1,
			   last_seen_at = excluded.last_seen_at,
			   context = excluded.context`,
			s.newID(now), key, m, excerpt, ts, ts, model.ReviewPending)
		if err != nil {
			return nil, fmt.Errorf("record mention: %w", err)
		}
		keys = append(keys, key)
	}

	items := make([]model.ReviewItem, 0, len(keys))
	for _, key := range keys {
		item, err := scanReview(tx.QueryRowContext(ctx,
			`SELECT `+selectColumns+` FROM unknown_mentions WHERE mention_key = ?`, key))
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]model.ReviewItem, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT ` + selectColumns + ` FROM unknown_mentions`
	var args []interface{}
	if p.Status != "" {
		if !model.ValidReviewStatuses[p.Status] {
			return nil, fmt.Errorf("invalid status %q (use pending or approved)", p.Status)
		}
		query += ` WHERE status = ?`
		args = append(args, p.Status)
	}
	query += ` ORDER BY last_seen_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	return s.query(ctx, query, args...)
}

func (s *SQLiteStore) Get(ctx context.Context, mention string) (*model.ReviewItem, error) {
	item, err := scanReview(s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM unknown_mentions WHERE mention_key = ?`, textnorm.Key(mention)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, mention)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *SQLiteStore) Resolve(ctx context.Context, p ResolveParams) (*model.ReviewItem, error) {
	key := textnorm.Key(p.Mention)
	if key == "" {
		return nil, errors.New("mention is required")
	}
	now := time.Now().UTC()
	ts := now.Format(timeFormat)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO unknown_mentions (id, mention_key, mention, seen_count, first_seen_at, last_seen_at, status, resolved_code, resolved_at)
		 VALUES (?, ?, ?, 0, ?, ?, ?, ?, ?)
		 ON CONFLICT(mention_key) DO UPDATE SET
		   status = excluded.status,
		   resolved_code = excluded.resolved_code,
		   resolved_at = excluded.resolved_at`,
		s.newID(now), key, p.Mention, ts, ts, model.ReviewApproved, p.Code, ts)
	if err != nil {
		return nil, fmt.Errorf("resolve mention: %w", err)
	}
	return s.Get(ctx, p.Mention)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...interface{}) ([]model.ReviewItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.ReviewItem
	for rows.Next() {
		item, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanReview(row scanner) (model.ReviewItem, error) {
	var r model.ReviewItem
	var excerpt, resolvedCode, resolvedAt sql.NullString
	var firstSeen, lastSeen string

	err := row.Scan(&r.ID, &r.Mention, &excerpt, &r.SeenCount, &firstSeen, &lastSeen,
		&r.Status, &resolvedCode, &resolvedAt)
	if err != nil {
		return r, err
	}

	r.FirstSeenAt, _ = time.Parse(timeFormat, firstSeen)
	r.LastSeenAt, _ = time.Parse(timeFormat, lastSeen)
	if excerpt.Valid {
		r.Context = excerpt.String
	}
	if resolvedCode.Valid {
		r.ResolvedCode = resolvedCode.String
	}
	if resolvedAt.Valid {
		t, _ := time.Parse(timeFormat, resolvedAt.String)
		r.ResolvedAt = &t
	}
	return r, nil
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
