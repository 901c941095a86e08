// internal/adapter/storage/schema.go

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrUnknownClient is returned when an opportunity references a client name
// that no longer resolves to a live client.
var ErrUnknownClient = errors.New("unknown client")

const schema = `
CREATE TABLE IF NOT EXISTS clients (
	id               BIGSERIAL PRIMARY KEY,
	name             TEXT NOT NULL UNIQUE,
	industry         TEXT NOT NULL DEFAULT '',
	tech_context_raw TEXT NOT NULL DEFAULT '',
	last_updated     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS trends (
	id           BIGSERIAL PRIMARY KEY,
	title        TEXT NOT NULL,
	source       TEXT NOT NULL,
	url          TEXT NOT NULL UNIQUE,
	summary      TEXT NOT NULL DEFAULT '',
	published_at TIMESTAMPTZ NOT NULL,
	tags         TEXT[] NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS rss_sources (
	id        BIGSERIAL PRIMARY KEY,
	name      TEXT NOT NULL,
	url       TEXT NOT NULL,
	category  TEXT NOT NULL DEFAULT '',
	client_id BIGINT REFERENCES clients(id) ON DELETE SET NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS opportunities (
	id              BIGSERIAL PRIMARY KEY,
	client_name     TEXT NOT NULL,
	trend_title     TEXT NOT NULL,
	trend_url       TEXT NOT NULL DEFAULT '',
	match_score     INT NOT NULL,
	reasoning       JSONB NOT NULL DEFAULT '[]',
	generated_pitch TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_trends_published_at ON trends (published_at DESC);
CREATE INDEX IF NOT EXISTS idx_opportunities_created_at ON opportunities (created_at DESC);
`

// EnsureSchema creates the tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("error ensuring schema: %w", err)
	}
	return nil
}
