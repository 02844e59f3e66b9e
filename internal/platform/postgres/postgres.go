package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and verifies the connection.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Schema is the engine's full DDL. Amounts are BIGINT token base units;
// addresses are the hex form of the deterministic record addresses.
const Schema = `
CREATE TABLE IF NOT EXISTS platform (
	address        TEXT PRIMARY KEY,
	admin_identity TEXT NOT NULL,
	fee_rate_bps   INTEGER NOT NULL,
	total_campaigns BIGINT NOT NULL,
	total_raised   BIGINT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS campaigns (
	id                      BIGINT PRIMARY KEY,
	address                 TEXT NOT NULL UNIQUE,
	creator                 TEXT NOT NULL,
	goal_amount             BIGINT NOT NULL,
	raised_amount           BIGINT NOT NULL,
	matching_pool_total     BIGINT NOT NULL,
	matching_pool_remaining BIGINT NOT NULL,
	matching_ratio          INTEGER NOT NULL,
	title                   TEXT NOT NULL,
	description             TEXT NOT NULL,
	duration_seconds        BIGINT NOT NULL,
	created_at              TIMESTAMPTZ NOT NULL,
	end_time                TIMESTAMPTZ NOT NULL,
	is_active               BOOLEAN NOT NULL,
	is_withdrawn            BOOLEAN NOT NULL,
	total_donors            BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS donations (
	address         TEXT PRIMARY KEY,
	campaign_id     BIGINT NOT NULL REFERENCES campaigns (id),
	donor           TEXT NOT NULL,
	sequence_index  BIGINT NOT NULL,
	amount          BIGINT NOT NULL,
	matching_amount BIGINT NOT NULL,
	total_amount    BIGINT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL,
	UNIQUE (campaign_id, sequence_index)
);

CREATE INDEX IF NOT EXISTS donations_campaign_idx ON donations (campaign_id, sequence_index);

CREATE TABLE IF NOT EXISTS accounts (
	address   TEXT PRIMARY KEY,
	owner     TEXT NOT NULL,
	authority TEXT NOT NULL,
	balance   BIGINT NOT NULL CHECK (balance >= 0)
);

CREATE TABLE IF NOT EXISTS outbox (
	seq            BIGSERIAL,
	id             TEXT PRIMARY KEY,
	aggregate_type TEXT NOT NULL,
	aggregate_id   TEXT NOT NULL,
	event_type     TEXT NOT NULL,
	payload        JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	published_at   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS outbox_pending_idx ON outbox (seq) WHERE published_at IS NULL;
`

// EnsureSchema applies the DDL. Idempotent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
