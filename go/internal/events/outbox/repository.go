package outbox

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/courtside/commander/go/internal/sqlutil"
)

// NotifyChannel is the Postgres NOTIFY channel pinged on every insert so
// the listener can drain without waiting for the poll interval.
const NotifyChannel = "plan_outbox_events"

// DBTX is the query surface shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries runs the outbox SQL against a DB or transaction.
type Queries struct {
	db DBTX
}

// New binds Queries to a DB or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// InsertEvent appends one event row and notifies the listener channel.
func (q *Queries) InsertEvent(ctx context.Context, planID, eventType string, payload []byte) error {
	id := uuid.New()
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO plan_outbox (id, plan_id, event_type, payload) VALUES ($1, $2, $3, $4)`,
		id, planID, eventType,
		pqtype.NullRawMessage{RawMessage: payload, Valid: len(payload) > 0},
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	if _, err := q.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, NotifyChannel, id.String()); err != nil {
		return fmt.Errorf("failed to notify outbox channel: %w", err)
	}
	return nil
}

// FetchUnsent claims up to limit unsent events. Run inside a transaction:
// SKIP LOCKED keeps concurrent relays from double-publishing.
func (q *Queries) FetchUnsent(ctx context.Context, limit int32) ([]OutboxEvent, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, plan_id, event_type, payload, created_at, sent_at
		 FROM plan_outbox
		 WHERE sent_at IS NULL
		 ORDER BY created_at ASC
		 LIMIT $1
		 FOR UPDATE SKIP LOCKED`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		var ev OutboxEvent
		var payload pqtype.NullRawMessage
		var sentAt sql.NullTime
		if err := rows.Scan(&ev.ID, &ev.PlanID, &ev.EventType, &payload, &ev.CreatedAt, &sentAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox row: %w", err)
		}
		if payload.Valid {
			ev.Payload = payload.RawMessage
		}
		ev.SentAt = sqlutil.FromSqlTime(sentAt)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox rows: %w", err)
	}
	return events, nil
}

// MarkSent stamps an event as published.
func (q *Queries) MarkSent(ctx context.Context, id uuid.UUID) error {
	if _, err := q.db.ExecContext(ctx, `UPDATE plan_outbox SET sent_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to mark outbox event sent: %w", err)
	}
	return nil
}
