package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/courtside/commander/go/internal/sqlutil"
)

// App records domain events for later relay. It satisfies the plan
// service's EventRecorder seam.
type App struct {
	db *sql.DB
}

// NewApp creates an outbox App over the events database.
func NewApp(db *sql.DB) *App {
	return &App{db: db}
}

// Record marshals the payload and inserts an outbox row transactionally.
func (a *App) Record(ctx context.Context, planID, eventType string, payload any) error {
	if planID == "" {
		return fmt.Errorf("validation failed: plan id is required")
	}
	if eventType == "" {
		return fmt.Errorf("validation failed: event type is required")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	err = sqlutil.Run(ctx, a.db, func(tx *sql.Tx) *Queries { return New(tx) }, func(q *Queries) error {
		return q.InsertEvent(ctx, planID, eventType, data)
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("plan_id", planID).
		Str("event_type", eventType).
		Msg("outbox event inserted")
	return nil
}
