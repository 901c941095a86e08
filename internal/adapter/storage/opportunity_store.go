// internal/adapter/storage/opportunity_store.go

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"innovaradar/internal/domain/opportunity"
)

// OpportunityStore implements storage for opportunities
type OpportunityStore struct {
	db *pgxpool.Pool
}

// NewOpportunityStore creates a new opportunity store
func NewOpportunityStore(db *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{
		db: db,
	}
}

// FetchOpportunities returns all opportunities, most recent first
func (s *OpportunityStore) FetchOpportunities(ctx context.Context) ([]opportunity.Opportunity, error) {
	query := `
		SELECT id, client_name, trend_title, trend_url, match_score, reasoning, generated_pitch, created_at
		FROM opportunities
		ORDER BY created_at DESC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying opportunities: %w", err)
	}
	defer rows.Close()

	var opps []opportunity.Opportunity
	for rows.Next() {
		var o opportunity.Opportunity
		var reasoningJSON []byte

		if err := rows.Scan(&o.ID, &o.ClientName, &o.TrendTitle, &o.TrendURL, &o.MatchScore, &reasoningJSON, &o.GeneratedPitch, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning opportunity: %w", err)
		}

		if err := json.Unmarshal(reasoningJSON, &o.Reasoning); err != nil {
			return nil, fmt.Errorf("error unmarshaling reasoning: %w", err)
		}

		opps = append(opps, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating opportunities: %w", err)
	}

	return opps, nil
}

// SaveOpportunity persists one opportunity. The insert is guarded by a
// client-name existence check so a candidate cannot be written once its
// client is gone; in that case ErrUnknownClient is returned.
func (s *OpportunityStore) SaveOpportunity(ctx context.Context, o opportunity.Opportunity) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}

	reasoningJSON, err := json.Marshal(o.Reasoning)
	if err != nil {
		return fmt.Errorf("error marshaling reasoning: %w", err)
	}

	query := `
		INSERT INTO opportunities (client_name, trend_title, trend_url, match_score, reasoning, generated_pitch, created_at)
		SELECT $1, $2, $3, $4, $5, $6, $7
		WHERE EXISTS (SELECT 1 FROM clients WHERE name = $1)
		RETURNING id
	`

	var id int64
	err = s.db.QueryRow(ctx, query,
		o.ClientName, o.TrendTitle, o.TrendURL, o.MatchScore, reasoningJSON, o.GeneratedPitch, o.CreatedAt,
	).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrUnknownClient, o.ClientName)
	}
	if err != nil {
		return fmt.Errorf("error inserting opportunity: %w", err)
	}

	return nil
}

// DeleteOpportunity removes an opportunity by ID
func (s *OpportunityStore) DeleteOpportunity(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM opportunities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting opportunity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
