package events

import "time"

// Event payload types shared between the plan service, outbox relay, and
// gateway packages.

// Event types recorded to the outbox and published on the bus.
const (
	TypePlanCreated     = "PlanCreated"
	TypePlanSaved       = "PlanSaved"
	TypePlanRenamed     = "PlanRenamed"
	TypePlanDeleted     = "PlanDeleted"
	TypePlayerAdded     = "PlayerAdded"
	TypePlayerUpdated   = "PlayerUpdated"
	TypePlayerDeleted   = "PlayerDeleted"
	TypeScheduleUpdated = "ScheduleUpdated"
)

// PlanCreatedPayload is the payload for a PlanCreated event
type PlanCreatedPayload struct {
	PlanID    string    `json:"plan_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// PlanSavedPayload is the payload for a PlanSaved event (save-as)
type PlanSavedPayload struct {
	PlanID       string    `json:"plan_id"`
	SourcePlanID string    `json:"source_plan_id"`
	Name         string    `json:"name"`
	SavedAt      time.Time `json:"saved_at"`
}

// PlanRenamedPayload is the payload for a PlanRenamed event
type PlanRenamedPayload struct {
	PlanID    string    `json:"plan_id"`
	OldName   string    `json:"old_name"`
	NewName   string    `json:"new_name"`
	RenamedAt time.Time `json:"renamed_at"`
}

// PlanDeletedPayload is the payload for a PlanDeleted event
type PlanDeletedPayload struct {
	PlanID    string    `json:"plan_id"`
	Name      string    `json:"name"`
	DeletedAt time.Time `json:"deleted_at"`
}

// PlayerPayload is the payload for PlayerAdded/PlayerUpdated/PlayerDeleted
type PlayerPayload struct {
	PlanID     string    `json:"plan_id"`
	PlayerID   string    `json:"player_id"`
	PlayerName string    `json:"player_name"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ScheduleUpdatedPayload is the payload for a ScheduleUpdated event
type ScheduleUpdatedPayload struct {
	PlanID     string    `json:"plan_id"`
	Operation  string    `json:"operation"` // assign, unassign, retime, cascade
	PlayerID   string    `json:"player_id,omitempty"`
	Quarter    string    `json:"quarter,omitempty"`
	Position   int       `json:"position"`
	SegmentID  string    `json:"segment_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
