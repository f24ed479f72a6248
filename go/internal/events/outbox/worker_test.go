package outbox

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore backs the in-memory driver below: outbox rows without Postgres.
type memStore struct {
	mu     sync.Mutex
	events []OutboxEvent
}

func (s *memStore) add(ev OutboxEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *memStore) unsent() []OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []OutboxEvent
	for _, ev := range s.events {
		if ev.SentAt == nil {
			out = append(out, ev)
		}
	}
	return out
}

func (s *memStore) apply(inserts []OutboxEvent, sent []uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, inserts...)
	now := time.Now()
	for _, id := range sent {
		for i := range s.events {
			if s.events[i].ID == id {
				s.events[i].SentAt = &now
			}
		}
	}
}

// memDB is a database/sql driver over memStore. Writes inside a transaction
// are staged and land on commit, so the worker's rollback path is observable.
type memDB struct {
	store *memStore
}

func (d *memDB) Connect(context.Context) (driver.Conn, error) {
	return &memConn{store: d.store}, nil
}
func (d *memDB) Driver() driver.Driver { return d }

func (d *memDB) Open(string) (driver.Conn, error) {
	return &memConn{store: d.store}, nil
}

type memConn struct {
	store   *memStore
	inTx    bool
	inserts []OutboxEvent
	sent    []uuid.UUID
}

func (c *memConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements not supported")
}
func (c *memConn) Close() error { return nil }

func (c *memConn) Begin() (driver.Tx, error) {
	c.inTx = true
	return &memTx{conn: c}, nil
}

func (c *memConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	switch {
	case strings.HasPrefix(query, "INSERT INTO plan_outbox"):
		ev := OutboxEvent{CreatedAt: time.Now()}
		id, err := uuid.Parse(args[0].Value.(string))
		if err != nil {
			return nil, err
		}
		ev.ID = id
		ev.PlanID = args[1].Value.(string)
		ev.EventType = args[2].Value.(string)
		if payload, ok := args[3].Value.([]byte); ok {
			ev.Payload = payload
		}
		c.inserts = append(c.inserts, ev)
	case strings.HasPrefix(query, "UPDATE plan_outbox"):
		id, err := uuid.Parse(args[0].Value.(string))
		if err != nil {
			return nil, err
		}
		c.sent = append(c.sent, id)
	case strings.Contains(query, "pg_notify"):
		// Nothing listens in tests.
	default:
		return nil, fmt.Errorf("unexpected exec: %s", query)
	}
	if !c.inTx {
		c.store.apply(c.inserts, c.sent)
		c.inserts, c.sent = nil, nil
	}
	return driver.RowsAffected(1), nil
}

func (c *memConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if !strings.Contains(query, "FROM plan_outbox") {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	events := c.store.unsent()
	if limit, ok := args[0].Value.(int64); ok && int64(len(events)) > limit {
		events = events[:limit]
	}
	return &memRows{events: events}, nil
}

type memTx struct {
	conn *memConn
}

func (t *memTx) Commit() error {
	t.conn.store.apply(t.conn.inserts, t.conn.sent)
	t.conn.inserts, t.conn.sent = nil, nil
	t.conn.inTx = false
	return nil
}

func (t *memTx) Rollback() error {
	t.conn.inserts, t.conn.sent = nil, nil
	t.conn.inTx = false
	return nil
}

type memRows struct {
	events []OutboxEvent
	idx    int
}

func (r *memRows) Columns() []string {
	return []string{"id", "plan_id", "event_type", "payload", "created_at", "sent_at"}
}
func (r *memRows) Close() error { return nil }

func (r *memRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.events) {
		return io.EOF
	}
	ev := r.events[r.idx]
	r.idx++
	dest[0] = ev.ID.String()
	dest[1] = ev.PlanID
	dest[2] = ev.EventType
	if len(ev.Payload) > 0 {
		dest[3] = []byte(ev.Payload)
	} else {
		dest[3] = nil
	}
	dest[4] = ev.CreatedAt
	dest[5] = nil
	return nil
}

// flakyPublisher fails its first `failures` attempts, then succeeds.
type flakyPublisher struct {
	mu        sync.Mutex
	failures  int
	attempts  int
	published []OutboxEvent
}

func (p *flakyPublisher) Publish(ctx context.Context, ev OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts++
	if p.attempts <= p.failures {
		return errors.New("bus unavailable")
	}
	p.published = append(p.published, ev)
	return nil
}

func newMemDB(store *memStore) *sql.DB {
	return sql.OpenDB(&memDB{store: store})
}

func newTestWorker(db *sql.DB, pub Publisher) *Worker {
	cfg := DefaultConfig()
	cfg.MaxRetries = 1
	cfg.RetryDelay = time.Millisecond
	return NewWorker(db, pub, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func seedEvent(store *memStore, eventType string) OutboxEvent {
	ev := OutboxEvent{
		ID:        uuid.New(),
		PlanID:    "plan-1",
		EventType: eventType,
		Payload:   json.RawMessage(`{"name":"Default Plan"}`),
		CreatedAt: time.Now(),
	}
	store.add(ev)
	return ev
}

func TestDrainPublishesAndMarksSent(t *testing.T) {
	store := &memStore{}
	first := seedEvent(store, "PlanCreated")
	second := seedEvent(store, "ScheduleUpdated")

	pub := &flakyPublisher{}
	w := newTestWorker(newMemDB(store), pub)

	w.Drain(context.Background())

	require.Len(t, pub.published, 2)
	assert.Equal(t, first.ID, pub.published[0].ID)
	assert.Equal(t, second.ID, pub.published[1].ID)
	assert.Empty(t, store.unsent(), "published events are marked sent")
}

func TestDrainEmptyOutbox(t *testing.T) {
	pub := &flakyPublisher{}
	w := newTestWorker(newMemDB(&memStore{}), pub)

	w.Drain(context.Background())
	assert.Zero(t, pub.attempts)
}

func TestDrainRetriesTransientFailure(t *testing.T) {
	store := &memStore{}
	seedEvent(store, "PlanCreated")

	pub := &flakyPublisher{failures: 1}
	w := newTestWorker(newMemDB(store), pub)

	w.Drain(context.Background())

	assert.Equal(t, 2, pub.attempts)
	require.Len(t, pub.published, 1)
	assert.Empty(t, store.unsent())
}

func TestDrainRollsBackWhenPublishExhausted(t *testing.T) {
	store := &memStore{}
	seedEvent(store, "PlanCreated")
	seedEvent(store, "PlanRenamed")

	pub := &flakyPublisher{failures: 100}
	w := newTestWorker(newMemDB(store), pub)

	w.Drain(context.Background())

	assert.Empty(t, pub.published)
	assert.Len(t, store.unsent(), 2, "batch stays unsent for the next round")
}

func TestFetchUnsentHonorsLimit(t *testing.T) {
	store := &memStore{}
	for i := 0; i < 3; i++ {
		seedEvent(store, "ScheduleUpdated")
	}

	q := New(newMemDB(store))
	events, err := q.FetchUnsent(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestRecordInsertsOutboxRow(t *testing.T) {
	store := &memStore{}
	app := NewApp(newMemDB(store))
	ctx := context.Background()

	err := app.Record(ctx, "plan-1", "PlanCreated", map[string]string{"name": "Default Plan"})
	require.NoError(t, err)

	events := store.unsent()
	require.Len(t, events, 1)
	assert.Equal(t, "plan-1", events[0].PlanID)
	assert.Equal(t, "PlanCreated", events[0].EventType)
	assert.JSONEq(t, `{"name":"Default Plan"}`, string(events[0].Payload))

	assert.Error(t, app.Record(ctx, "", "PlanCreated", nil))
	assert.Error(t, app.Record(ctx, "plan-1", "", nil))
}

func TestWorkerStartStopLifecycle(t *testing.T) {
	w := newTestWorker(newMemDB(&memStore{}), &flakyPublisher{})
	ctx := context.Background()

	require.NoError(t, w.Start(ctx))
	assert.Error(t, w.Start(ctx), "double start is rejected")
	require.NoError(t, w.Stop())
	assert.Error(t, w.Stop(), "double stop is rejected")
}
