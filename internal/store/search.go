package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/rcliao/symptom-catalog/internal/model"
	"github.com/rcliao/symptom-catalog/internal/textnorm"
)

// SearchParams holds parameters for searching the review log.
type SearchParams struct {
	Query  string
	Status string
	Limit  int
}

// Search finds review items whose mention or context contains the query.
// Mentions are matched on their normalized form.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]model.ReviewItem, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	q := strings.TrimSpace(p.Query)
	if q == "" {
		return nil, fmt.Errorf("search query is required")
	}

	where := []string{`(mention_key LIKE ? ESCAPE '\' OR context LIKE ? ESCAPE '\')`}
	args := []interface{}{"%" + escapeLike(textnorm.Key(q)) + "%", "%" + escapeLike(q) + "%"}

	if p.Status != "" {
		if !model.ValidReviewStatuses[p.Status] {
			return nil, fmt.Errorf("invalid status %q (use pending or approved)", p.Status)
		}
		where = append(where, "status = ?")
		args = append(args, p.Status)
	}

	query := fmt.Sprintf(`SELECT %s FROM unknown_mentions
		WHERE %s
		ORDER BY seen_count DESC, last_seen_at DESC
		LIMIT ?`, selectColumns, strings.Join(where, " AND "))
	args = append(args, limit)

	return s.query(ctx, query, args...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
