package plan

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/courtside/commander/go/internal/events"
	"github.com/courtside/commander/go/internal/models"
	"github.com/courtside/commander/go/internal/roster"
	"github.com/courtside/commander/go/internal/schedule"
)

// PlanRepository defines what the app layer needs from the repository.
type PlanRepository interface {
	CreatePlan(ctx context.Context, p models.Plan) error
	SavePlan(ctx context.Context, p models.Plan) error
	GetPlan(ctx context.Context, id string) (models.Plan, []Repair, error)
	ListPlans(ctx context.Context) ([]models.Plan, error)
	RenamePlan(ctx context.Context, id, name string) error
	DeletePlan(ctx context.Context, id string) error
	CountPlans(ctx context.Context) (int, error)
	CurrentPlanID(ctx context.Context) (string, error)
	SetCurrentPlan(ctx context.Context, id string) error
}

// EventRecorder defines what the app needs from the outbox: recording a
// domain event alongside a committed mutation.
type EventRecorder interface {
	Record(ctx context.Context, planID, eventType string, payload any) error
}

// App owns the plan lifecycle and is the single writer over the current
// plan. Mutations read the current snapshot, compute a new plan through the
// engine/roster layers, persist it wholesale, and swap it in. Reads hand
// out deep copies, so held snapshots stay valid.
type App struct {
	repo     PlanRepository
	engine   *schedule.Engine
	roster   *roster.App
	recorder EventRecorder // optional
	clock    clockwork.Clock

	mu      sync.Mutex
	current models.Plan
}

// NewApp creates a plan App.
func NewApp(repo PlanRepository, engine *schedule.Engine, rosterApp *roster.App, recorder EventRecorder, clock clockwork.Clock) *App {
	return &App{
		repo:     repo,
		engine:   engine,
		roster:   rosterApp,
		recorder: recorder,
		clock:    clock,
	}
}

// Bootstrap loads the stored plans and selects the current one. With no
// stored plans it creates a default, so the plan set is never empty.
func (a *App) Bootstrap(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	plans, err := a.repo.ListPlans(ctx)
	if err != nil {
		return fmt.Errorf("failed to list plans: %w", err)
	}

	if len(plans) == 0 {
		p := models.NewPlan(uuid.New().String(), "Default Plan")
		p.UpdatedAt = a.clock.Now()
		if err := a.repo.CreatePlan(ctx, p); err != nil {
			return fmt.Errorf("failed to create default plan: %w", err)
		}
		if err := a.repo.SetCurrentPlan(ctx, p.ID); err != nil {
			return fmt.Errorf("failed to select default plan: %w", err)
		}
		a.current = p
		log.Info().Str("plan_id", p.ID).Msg("no stored plans, created default")
		return nil
	}

	currentID, err := a.repo.CurrentPlanID(ctx)
	if err != nil {
		return fmt.Errorf("failed to read current plan id: %w", err)
	}
	selected := plans[0]
	for _, p := range plans {
		if p.ID == currentID {
			selected = p
			break
		}
	}
	a.current = selected
	log.Info().Str("plan_id", selected.ID).Str("name", selected.Name).Int("plans", len(plans)).Msg("loaded current plan")
	return nil
}

// Current returns a deep copy of the plan being edited.
func (a *App) Current() models.Plan {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current.Clone()
}

// List returns every stored plan.
func (a *App) List(ctx context.Context) ([]models.Plan, error) {
	plans, err := a.repo.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// Create stores a fresh empty plan and makes it current. An empty name gets
// the "Game Plan N" default.
func (a *App) Create(ctx context.Context, name string) (models.Plan, []schedule.Diagnostic, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if name == "" {
		count, err := a.repo.CountPlans(ctx)
		if err != nil {
			return models.Plan{}, nil, fmt.Errorf("failed to count plans: %w", err)
		}
		name = fmt.Sprintf("Game Plan %d", count+1)
	}

	p := models.NewPlan(uuid.New().String(), name)
	p.UpdatedAt = a.clock.Now()
	if err := a.repo.CreatePlan(ctx, p); err != nil {
		return models.Plan{}, nil, fmt.Errorf("failed to create plan: %w", err)
	}
	if err := a.repo.SetCurrentPlan(ctx, p.ID); err != nil {
		return models.Plan{}, nil, fmt.Errorf("failed to select plan: %w", err)
	}
	a.current = p

	a.record(ctx, p.ID, events.TypePlanCreated, events.PlanCreatedPayload{
		PlanID: p.ID, Name: p.Name, CreatedAt: p.UpdatedAt,
	})
	return p.Clone(), infoDiag("plan_created", fmt.Sprintf("%q is ready.", name)), nil
}

// SaveAs clones the current plan under a new id and name; the clone becomes
// current.
func (a *App) SaveAs(ctx context.Context, name string) (models.Plan, []schedule.Diagnostic, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	p := a.current.Clone()
	sourceID := p.ID
	p.ID = uuid.New().String()
	p.Name = name
	p.UpdatedAt = a.clock.Now()

	if err := a.repo.CreatePlan(ctx, p); err != nil {
		return models.Plan{}, nil, fmt.Errorf("failed to save plan: %w", err)
	}
	if err := a.repo.SetCurrentPlan(ctx, p.ID); err != nil {
		return models.Plan{}, nil, fmt.Errorf("failed to select plan: %w", err)
	}
	a.current = p

	a.record(ctx, p.ID, events.TypePlanSaved, events.PlanSavedPayload{
		PlanID: p.ID, SourcePlanID: sourceID, Name: name, SavedAt: p.UpdatedAt,
	})
	return p.Clone(), infoDiag("plan_saved", fmt.Sprintf("%q has been saved.", name)), nil
}

// Rename changes a stored plan's name. Unknown ids are a reported failure.
func (a *App) Rename(ctx context.Context, id, newName string) ([]schedule.Diagnostic, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	existing, _, err := a.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.repo.RenamePlan(ctx, id, newName); err != nil {
		return nil, fmt.Errorf("failed to rename plan: %w", err)
	}
	if a.current.ID == id {
		a.current.Name = newName
	}

	a.record(ctx, id, events.TypePlanRenamed, events.PlanRenamedPayload{
		PlanID: id, OldName: existing.Name, NewName: newName, RenamedAt: a.clock.Now(),
	})
	return infoDiag("plan_renamed", fmt.Sprintf("Plan renamed to %q.", newName)), nil
}

// Load makes the stored plan with the given id current. Unknown ids are a
// reported failure.
func (a *App) Load(ctx context.Context, id string) (models.Plan, []schedule.Diagnostic, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, repairs, err := a.repo.GetPlan(ctx, id)
	if err != nil {
		return models.Plan{}, nil, err
	}
	if err := a.repo.SetCurrentPlan(ctx, id); err != nil {
		return models.Plan{}, nil, fmt.Errorf("failed to select plan: %w", err)
	}
	a.current = p

	diags := infoDiag("plan_loaded", fmt.Sprintf("%q has been loaded.", p.Name))
	for _, r := range repairs {
		log.Warn().Str("plan_id", id).Str("path", r.Path).Str("detail", r.Detail).Msg("repaired stored plan field")
	}
	return p.Clone(), diags, nil
}

// Delete removes a stored plan. Deleting the last remaining plan is
// rejected; deleting the current plan promotes the first remaining one.
func (a *App) Delete(ctx context.Context, id string) ([]schedule.Diagnostic, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	count, err := a.repo.CountPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count plans: %w", err)
	}
	if count <= 1 {
		return nil, ErrLastPlan
	}

	doomed, _, err := a.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.repo.DeletePlan(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete plan: %w", err)
	}

	if a.current.ID == id {
		remaining, err := a.repo.ListPlans(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list remaining plans: %w", err)
		}
		if len(remaining) > 0 {
			a.current = remaining[0]
			if err := a.repo.SetCurrentPlan(ctx, a.current.ID); err != nil {
				return nil, fmt.Errorf("failed to select plan: %w", err)
			}
		}
	}

	a.record(ctx, id, events.TypePlanDeleted, events.PlanDeletedPayload{
		PlanID: id, Name: doomed.Name, DeletedAt: a.clock.Now(),
	})
	return infoDiag("plan_deleted", fmt.Sprintf("%q deleted.", doomed.Name)), nil
}

// AddPlayer adds a roster entry to the current plan and persists it.
func (a *App) AddPlayer(ctx context.Context, player models.Player) (models.Plan, []schedule.Diagnostic, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	next, diags, err := a.roster.AddPlayer(a.current, player)
	if err != nil {
		return models.Plan{}, nil, err
	}
	next, err = a.commit(ctx, next)
	if err != nil {
		return models.Plan{}, nil, err
	}
	a.record(ctx, next.ID, events.TypePlayerAdded, events.PlayerPayload{
		PlanID: next.ID, PlayerID: player.ID, PlayerName: player.Name, OccurredAt: next.UpdatedAt,
	})
	return next.Clone(), diags, nil
}

// EditPlayer replaces a roster entry on the current plan and persists it.
func (a *App) EditPlayer(ctx context.Context, player models.Player) (models.Plan, []schedule.Diagnostic, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	next, diags, err := a.roster.EditPlayer(a.current, player)
	if err != nil {
		return models.Plan{}, nil, err
	}
	next, err = a.commit(ctx, next)
	if err != nil {
		return models.Plan{}, nil, err
	}
	a.record(ctx, next.ID, events.TypePlayerUpdated, events.PlayerPayload{
		PlanID: next.ID, PlayerID: player.ID, PlayerName: player.Name, OccurredAt: next.UpdatedAt,
	})
	return next.Clone(), diags, nil
}

// DeletePlayer removes a roster entry and its segments from the current
// plan and persists it.
func (a *App) DeletePlayer(ctx context.Context, playerID string) (models.Plan, []schedule.Diagnostic, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	next, diags, err := a.roster.DeletePlayer(a.current, playerID)
	if err != nil {
		return models.Plan{}, nil, err
	}
	next, err = a.commit(ctx, next)
	if err != nil {
		return models.Plan{}, nil, err
	}
	a.record(ctx, next.ID, events.TypePlayerDeleted, events.PlayerPayload{
		PlanID: next.ID, PlayerID: playerID, OccurredAt: next.UpdatedAt,
	})
	return next.Clone(), diags, nil
}

// AssignPlayer runs the engine's assign operation on the current plan's
// schedule and persists the result.
func (a *App) AssignPlayer(ctx context.Context, playerID string, quarter models.QuarterKey, pos int, source *schedule.SegmentRef) (models.Plan, []schedule.Diagnostic, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	next := a.current.Clone()
	s, diags := a.engine.AssignPlayer(next.Schedule, playerID, quarter, pos, source)
	next.Schedule = s
	next, err := a.commit(ctx, next)
	if err != nil {
		return models.Plan{}, nil, err
	}
	a.record(ctx, next.ID, events.TypeScheduleUpdated, events.ScheduleUpdatedPayload{
		PlanID: next.ID, Operation: "assign", PlayerID: playerID,
		Quarter: string(quarter), Position: pos, OccurredAt: next.UpdatedAt,
	})
	return next.Clone(), diags, nil
}

// UnassignSegment removes one segment from the current plan's schedule and
// persists the result.
func (a *App) UnassignSegment(ctx context.Context, quarter models.QuarterKey, pos int, segmentID string) (models.Plan, []schedule.Diagnostic, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	next := a.current.Clone()
	s, diags := a.engine.UnassignSegment(next.Schedule, quarter, pos, segmentID)
	next.Schedule = s
	next, err := a.commit(ctx, next)
	if err != nil {
		return models.Plan{}, nil, err
	}
	a.record(ctx, next.ID, events.TypeScheduleUpdated, events.ScheduleUpdatedPayload{
		PlanID: next.ID, Operation: "unassign",
		Quarter: string(quarter), Position: pos, SegmentID: segmentID, OccurredAt: next.UpdatedAt,
	})
	return next.Clone(), diags, nil
}

// UpdateSegmentMinutes retimes one segment on the current plan's schedule
// and persists the result.
func (a *App) UpdateSegmentMinutes(ctx context.Context, quarter models.QuarterKey, pos int, segmentID string, minutes int) (models.Plan, []schedule.Diagnostic, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	next := a.current.Clone()
	s, diags := a.engine.UpdateSegmentMinutes(next.Schedule, quarter, pos, segmentID, minutes)
	next.Schedule = s
	next, err := a.commit(ctx, next)
	if err != nil {
		return models.Plan{}, nil, err
	}
	a.record(ctx, next.ID, events.TypeScheduleUpdated, events.ScheduleUpdatedPayload{
		PlanID: next.ID, Operation: "retime",
		Quarter: string(quarter), Position: pos, SegmentID: segmentID, OccurredAt: next.UpdatedAt,
	})
	return next.Clone(), diags, nil
}

// TotalPlayingTime sums the current plan's scheduled minutes for a player.
func (a *App) TotalPlayingTime(playerID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return schedule.TotalPlayingTime(a.current.Schedule, playerID)
}

// OnCourt returns the players closing out at least one position in any
// quarter of the current plan.
func (a *App) OnCourt() map[string]bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return schedule.OnCourtAnyQuarter(a.current.Schedule)
}

// commit stamps UpdatedAt, persists the plan, and swaps it in as current.
// Callers must use the returned plan: it carries the stamp.
func (a *App) commit(ctx context.Context, next models.Plan) (models.Plan, error) {
	next.UpdatedAt = a.clock.Now()
	if err := a.repo.SavePlan(ctx, next); err != nil {
		return models.Plan{}, fmt.Errorf("failed to save plan: %w", err)
	}
	a.current = next
	return next, nil
}

// record inserts an outbox event for a committed mutation. Failures are
// logged, not surfaced: the mutation already committed.
func (a *App) record(ctx context.Context, planID, eventType string, payload any) {
	if a.recorder == nil {
		return
	}
	if err := a.recorder.Record(ctx, planID, eventType, payload); err != nil {
		log.Error().Err(err).Str("plan_id", planID).Str("event_type", eventType).Msg("failed to record outbox event")
	}
}

func infoDiag(code, msg string) []schedule.Diagnostic {
	return []schedule.Diagnostic{{Severity: schedule.SeverityInfo, Code: code, Message: msg}}
}
