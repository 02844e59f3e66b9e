package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	audit "fundmatch/pkg/platform/audit"
	txcontext "fundmatch/pkg/platform/tx"
)

// Store implements audit.Outbox using the transactional outbox pattern.
// Events are written to the outbox table inside the engine operation's
// transaction and published to Kafka by the outbox worker, so an event is
// visible downstream only if the state change it describes committed.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append writes an audit event to the outbox table.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateType := "platform"
	aggregateID := "platform"
	if event.CampaignID != "" {
		aggregateType = "campaign"
		aggregateID = event.CampaignID
	}

	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.NewString(), aggregateType, aggregateID, event.Action, payload, event.Timestamp)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

// FetchPending returns unpublished outbox rows in commit order.
func (s *Store) FetchPending(ctx context.Context, limit int) ([]audit.PendingEvent, error) {
	query := `
		SELECT id, payload FROM outbox
		WHERE published_at IS NULL
		ORDER BY seq
		LIMIT $1
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch pending outbox events: %w", err)
	}
	defer rows.Close()

	var out []audit.PendingEvent
	for rows.Next() {
		var p audit.PendingEvent
		if err := rows.Scan(&p.ID, &p.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		if err := json.Unmarshal(p.Payload, &p.Event); err != nil {
			return nil, fmt.Errorf("decode outbox payload: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkPublished stamps rows as delivered.
func (s *Store) MarkPublished(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE outbox SET published_at = NOW() WHERE id = ANY($1)`
	if _, err := s.execer(ctx).ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("mark outbox events published: %w", err)
	}
	return nil
}
