// internal/adapter/storage/trend_store.go

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"innovaradar/internal/domain/trend"
)

// TrendStore implements storage for trends
type TrendStore struct {
	db *pgxpool.Pool
}

// NewTrendStore creates a new trend store
func NewTrendStore(db *pgxpool.Pool) *TrendStore {
	return &TrendStore{
		db: db,
	}
}

// FetchTrends returns the most recent trends, ordered by publish time
// descending, limited to the given count.
func (s *TrendStore) FetchTrends(ctx context.Context, limit int) ([]trend.Trend, error) {
	query := `
		SELECT id, title, source, url, summary, published_at, tags
		FROM trends
		ORDER BY published_at DESC
		LIMIT $1
	`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying trends: %w", err)
	}
	defer rows.Close()

	var trends []trend.Trend
	for rows.Next() {
		var t trend.Trend
		if err := rows.Scan(&t.ID, &t.Title, &t.Source, &t.URL, &t.Summary, &t.PublishedAt, &t.Tags); err != nil {
			return nil, fmt.Errorf("error scanning trend: %w", err)
		}
		trends = append(trends, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trends: %w", err)
	}

	return trends, nil
}

// SaveTrends upserts a batch of trends keyed on URL. Submitting the same URL
// twice overwrites the stored fields instead of creating a second row.
func (s *TrendStore) SaveTrends(ctx context.Context, trends []trend.Trend) error {
	query := `
		INSERT INTO trends (title, source, url, summary, published_at, tags)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (url) DO UPDATE
		SET
			title = $1,
			source = $2,
			summary = $4,
			published_at = $5,
			tags = $6
	`

	for _, t := range trends {
		if t.PublishedAt.IsZero() {
			t.PublishedAt = time.Now()
		}
		if t.Tags == nil {
			t.Tags = []string{}
		}

		_, err := s.db.Exec(ctx, query, t.Title, t.Source, t.URL, t.Summary, t.PublishedAt, t.Tags)
		if err != nil {
			return fmt.Errorf("error upserting trend %q: %w", t.URL, err)
		}
	}

	return nil
}

// DeleteTrend removes a trend by ID
func (s *TrendStore) DeleteTrend(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM trends WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting trend: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
