package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"
)

// Publisher delivers relayed outbox events to the message bus.
type Publisher interface {
	Publish(ctx context.Context, event OutboxEvent) error
}

// MockPublisher is a simple log-only publisher for development/testing.
type MockPublisher struct {
	logger *slog.Logger
}

func NewMockPublisher(logger *slog.Logger) *MockPublisher {
	return &MockPublisher{logger: logger}
}

func (p *MockPublisher) Publish(ctx context.Context, event OutboxEvent) error {
	p.logger.Info("publishing event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.EventType),
		slog.String("plan_id", event.PlanID))
	return nil
}

// NATSPublisher publishes events to a NATS JetStream subject per type,
// e.g. plan.events.ScheduleUpdated.
type NATSPublisher struct {
	js            jetstream.JetStream
	subjectPrefix string
	logger        *slog.Logger
}

func NewNATSPublisher(js jetstream.JetStream, subjectPrefix string, logger *slog.Logger) *NATSPublisher {
	return &NATSPublisher{
		js:            js,
		subjectPrefix: subjectPrefix,
		logger:        logger,
	}
}

func (p *NATSPublisher) Publish(ctx context.Context, event OutboxEvent) error {
	subject := fmt.Sprintf("%s.%s", p.subjectPrefix, event.EventType)

	envelope := map[string]any{
		"eventId":   event.ID.String(),
		"eventType": event.EventType,
		"planId":    event.PlanID,
		"timestamp": event.CreatedAt,
		"payload":   json.RawMessage(event.Payload),
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	p.logger.Debug("published outbox event",
		slog.String("subject", subject),
		slog.String("event_id", event.ID.String()),
		slog.Int("size", len(data)))
	return nil
}
