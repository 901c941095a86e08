// internal/adapter/storage/client_store.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"innovaradar/internal/domain/client"
)

// ClientStore implements storage for clients
type ClientStore struct {
	db *pgxpool.Pool
}

// NewClientStore creates a new client store
func NewClientStore(db *pgxpool.Pool) *ClientStore {
	return &ClientStore{
		db: db,
	}
}

// FetchClients returns all clients ordered by name
func (s *ClientStore) FetchClients(ctx context.Context) ([]client.Client, error) {
	query := `
		SELECT id, name, industry, tech_context_raw, last_updated
		FROM clients
		ORDER BY name
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying clients: %w", err)
	}
	defer rows.Close()

	var clients []client.Client
	for rows.Next() {
		var c client.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Industry, &c.TechContextRaw, &c.LastUpdated); err != nil {
			return nil, fmt.Errorf("error scanning client: %w", err)
		}
		clients = append(clients, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clients: %w", err)
	}

	return clients, nil
}

// UpsertClient inserts or updates a client keyed on its name. Any externally
// supplied ID is ignored; the returned client carries the store-assigned ID.
func (s *ClientStore) UpsertClient(ctx context.Context, c client.Client) (client.Client, error) {
	if c.LastUpdated.IsZero() {
		c.LastUpdated = time.Now()
	}

	var existingID int64
	err := s.db.QueryRow(ctx, `SELECT id FROM clients WHERE name = $1`, c.Name).Scan(&existingID)

	switch {
	case err == nil:
		_, err = s.db.Exec(ctx, `
			UPDATE clients
			SET industry = $2, tech_context_raw = $3, last_updated = $4
			WHERE id = $1
		`, existingID, c.Industry, c.TechContextRaw, c.LastUpdated)
		if err != nil {
			return client.Client{}, fmt.Errorf("error updating client: %w", err)
		}
		c.ID = existingID

	case errors.Is(err, pgx.ErrNoRows):
		err = s.db.QueryRow(ctx, `
			INSERT INTO clients (name, industry, tech_context_raw, last_updated)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, c.Name, c.Industry, c.TechContextRaw, c.LastUpdated).Scan(&c.ID)
		if err != nil {
			return client.Client{}, fmt.Errorf("error inserting client: %w", err)
		}

	default:
		return client.Client{}, fmt.Errorf("error looking up client by name: %w", err)
	}

	return c, nil
}

// DeleteClient removes a client by ID
func (s *ClientStore) DeleteClient(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
