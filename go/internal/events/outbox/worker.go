package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Config tunes the outbox relay loop.
type Config struct {
	PollInterval time.Duration
	BatchSize    int32
	MaxRetries   int
	RetryDelay   time.Duration
}

func DefaultConfig() Config {
	return Config{
		PollInterval: 5 * time.Second,
		BatchSize:    100,
		MaxRetries:   3,
		RetryDelay:   time.Second,
	}
}

// Worker drains unsent outbox rows to the publisher on a poll interval.
// Fetch, publish, and mark-sent run inside one transaction; a failed
// publish rolls back and the batch is retried next round.
type Worker struct {
	db        *sql.DB
	publisher Publisher
	config    Config
	logger    *slog.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewWorker(database *sql.DB, publisher Publisher, cfg Config, logger *slog.Logger) *Worker {
	return &Worker{
		db:        database,
		publisher: publisher,
		config:    cfg,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("outbox worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(ctx)

	w.logger.Info("outbox worker started",
		slog.Duration("poll_interval", w.config.PollInterval),
		slog.Int("batch_size", int(w.config.BatchSize)))
	return nil
}

func (w *Worker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("outbox worker not running")
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopChan)
	w.wg.Wait()

	w.logger.Info("outbox worker stopped")
	return nil
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	// Process immediately on start
	w.Drain(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.Drain(ctx)
		}
	}
}

// Drain publishes one batch of unsent events. Also called by the
// LISTEN/NOTIFY listener so inserts relay without waiting for the ticker.
func (w *Worker) Drain(ctx context.Context) {
	txn, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		w.logger.Error("failed to begin transaction", slog.String("error", err.Error()))
		return
	}
	committed := false
	defer func() {
		if !committed {
			_ = txn.Rollback()
		}
	}()

	queries := New(txn)
	events, err := queries.FetchUnsent(ctx, w.config.BatchSize)
	if err != nil {
		w.logger.Error("failed to fetch unsent events", slog.String("error", err.Error()))
		return
	}
	if len(events) == 0 {
		committed = true
		_ = txn.Commit()
		return
	}

	published := 0
	for _, ev := range events {
		if err := w.publishWithRetry(ctx, ev); err != nil {
			w.logger.Error("failed to publish event, batch will retry",
				slog.String("event_id", ev.ID.String()),
				slog.String("event_type", ev.EventType),
				slog.String("error", err.Error()))
			return
		}
		if err := queries.MarkSent(ctx, ev.ID); err != nil {
			w.logger.Error("failed to mark event sent",
				slog.String("event_id", ev.ID.String()),
				slog.String("error", err.Error()))
			return
		}
		published++
	}

	if err := txn.Commit(); err != nil {
		w.logger.Error("failed to commit outbox batch", slog.String("error", err.Error()))
		return
	}
	committed = true

	w.logger.Info("outbox batch published", slog.Int("events", published))
}

func (w *Worker) publishWithRetry(ctx context.Context, ev OutboxEvent) error {
	var err error
	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.config.RetryDelay):
			}
		}
		if err = w.publisher.Publish(ctx, ev); err == nil {
			return nil
		}
	}
	return err
}
