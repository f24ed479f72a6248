package gateway

import (
	"encoding/json"
	"time"
)

// PlanEvent is the envelope pushed to WebSocket clients when a plan
// changes. Data carries the bus payload untouched.
type PlanEvent struct {
	ID        string          `json:"id"`
	PlanID    string          `json:"plan_id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// busEnvelope mirrors the outbox publisher's message shape.
type busEnvelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	PlanID    string          `json:"planId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}
