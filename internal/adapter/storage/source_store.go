// internal/adapter/storage/source_store.go

package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"innovaradar/internal/domain/source"
)

// SourceStore implements storage for RSS sources
type SourceStore struct {
	db *pgxpool.Pool
}

// NewSourceStore creates a new source store
func NewSourceStore(db *pgxpool.Pool) *SourceStore {
	return &SourceStore{
		db: db,
	}
}

// FetchSources returns all configured sources with the bound client name
// inlined when the source is assigned to a client.
func (s *SourceStore) FetchSources(ctx context.Context) ([]source.Source, error) {
	query := `
		SELECT r.id, r.name, r.url, r.category, r.client_id, COALESCE(c.name, ''), r.is_active
		FROM rss_sources r
		LEFT JOIN clients c ON c.id = r.client_id
		ORDER BY r.name
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying sources: %w", err)
	}
	defer rows.Close()

	var sources []source.Source
	for rows.Next() {
		var src source.Source
		if err := rows.Scan(&src.ID, &src.Name, &src.URL, &src.Category, &src.ClientID, &src.ClientName, &src.IsActive); err != nil {
			return nil, fmt.Errorf("error scanning source: %w", err)
		}
		sources = append(sources, src)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sources: %w", err)
	}

	return sources, nil
}

// AddSource creates a new RSS source
func (s *SourceStore) AddSource(ctx context.Context, src source.Source) (source.Source, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO rss_sources (name, url, category, client_id, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, src.Name, src.URL, src.Category, src.ClientID, src.IsActive).Scan(&src.ID)

	if err != nil {
		return source.Source{}, fmt.Errorf("error inserting source: %w", err)
	}

	return src, nil
}

// DeleteSource removes a source by ID
func (s *SourceStore) DeleteSource(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM rss_sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting source: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateSourceStatus toggles a source active or inactive
func (s *SourceStore) UpdateSourceStatus(ctx context.Context, id int64, active bool) error {
	tag, err := s.db.Exec(ctx, `UPDATE rss_sources SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("error updating source status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
