package store

import (
	"context"
	"os"
)

// Stats holds review log statistics.
type Stats struct {
	DBPath      string        `json:"db_path" yaml:"db_path"`
	DBSizeBytes int64         `json:"db_size_bytes" yaml:"db_size_bytes"`
	Total       int           `json:"total" yaml:"total"`
	Sightings   int           `json:"sightings" yaml:"sightings"`
	ByStatus    []StatusCount `json:"by_status" yaml:"by_status"`
	TopPending  []TopMention  `json:"top_pending" yaml:"top_pending"`
}

// StatusCount holds the number of mentions in one status.
type StatusCount struct {
	Status string `json:"status" yaml:"status"`
	Count  int    `json:"count" yaml:"count"`
}

// TopMention is a frequently seen pending mention.
type TopMention struct {
	Mention   string `json:"mention" yaml:"mention"`
	SeenCount int    `json:"seen_count" yaml:"seen_count"`
}

const topPendingLimit = 10

// Stats returns review log statistics.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{DBPath: s.path}

	for _, p := range []string{s.path, s.path + "-wal"} {
		if info, err := os.Stat(p); err == nil {
			st.DBSizeBytes += info.Size()
		}
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(seen_count), 0) FROM unknown_mentions`).Scan(&st.Total, &st.Sightings); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) AS cnt
		FROM unknown_mentions
		GROUP BY status ORDER BY cnt DESC, status`)
	if err != nil {
		return st, err
	}
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			rows.Close()
			return st, err
		}
		st.ByStatus = append(st.ByStatus, sc)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT mention, seen_count
		FROM unknown_mentions WHERE status = 'pending'
		ORDER BY seen_count DESC, last_seen_at DESC LIMIT ?`, topPendingLimit)
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var tm TopMention
		if err := rows.Scan(&tm.Mention, &tm.SeenCount); err != nil {
			return st, err
		}
		st.TopPending = append(st.TopPending, tm)
	}
	return st, rows.Err()
}
