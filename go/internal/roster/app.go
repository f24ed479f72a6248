package roster

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/courtside/commander/go/internal/models"
	"github.com/courtside/commander/go/internal/schedule"
)

// ScheduleEngine defines what the roster app needs from the assignment
// engine: the cascade that clears a deleted player off the timeline.
type ScheduleEngine interface {
	RemovePlayerSegments(s models.Schedule, playerID string) models.Schedule
}

// App handles roster mutations on a plan. Operations take the current plan,
// return an updated deep copy, and leave the input untouched.
type App struct {
	engine ScheduleEngine
}

// NewApp creates a roster App.
func NewApp(engine ScheduleEngine) *App {
	return &App{engine: engine}
}

// AddPlayer appends a player to the plan's roster. The caller supplies the
// id and is responsible for its uniqueness; names are not deduplicated.
func (a *App) AddPlayer(plan models.Plan, player models.Player) (models.Plan, []schedule.Diagnostic, error) {
	if player.ID == "" {
		return plan, nil, fmt.Errorf("validation failed: player id is required")
	}
	if player.Name == "" {
		return plan, nil, fmt.Errorf("validation failed: player name is required")
	}

	next := plan.Clone()
	next.Players = append(next.Players, player)

	log.Info().Str("player_id", player.ID).Str("name", player.Name).Msg("player added to roster")
	return next, []schedule.Diagnostic{{
		Severity: schedule.SeverityInfo,
		Code:     "player_added",
		Message:  fmt.Sprintf("%s has been added.", player.Name),
	}}, nil
}

// EditPlayer replaces the roster entry matching the player's id. An unknown
// id is a no-op.
func (a *App) EditPlayer(plan models.Plan, player models.Player) (models.Plan, []schedule.Diagnostic, error) {
	if player.ID == "" {
		return plan, nil, fmt.Errorf("validation failed: player id is required")
	}

	next := plan.Clone()
	for i := range next.Players {
		if next.Players[i].ID == player.ID {
			next.Players[i] = player
			log.Info().Str("player_id", player.ID).Msg("player updated")
			return next, []schedule.Diagnostic{{
				Severity: schedule.SeverityInfo,
				Code:     "player_updated",
				Message:  fmt.Sprintf("%s's details have been updated.", player.Name),
			}}, nil
		}
	}
	return next, nil, nil
}

// DeletePlayer removes the player from the roster and cascades through the
// schedule, dropping every segment that references the player. The roster
// change and the cascade land in the same returned plan.
func (a *App) DeletePlayer(plan models.Plan, playerID string) (models.Plan, []schedule.Diagnostic, error) {
	if playerID == "" {
		return plan, nil, fmt.Errorf("validation failed: player id is required")
	}

	next := plan.Clone()
	name := "Player"
	if p := next.FindPlayer(playerID); p != nil {
		name = p.Name
	}

	kept := next.Players[:0:len(next.Players)]
	for _, p := range next.Players {
		if p.ID != playerID {
			kept = append(kept, p)
		}
	}
	next.Players = kept
	next.Schedule = a.engine.RemovePlayerSegments(next.Schedule, playerID)

	log.Info().Str("player_id", playerID).Msg("player deleted with schedule cascade")
	return next, []schedule.Diagnostic{{
		Severity: schedule.SeverityInfo,
		Code:     "player_deleted",
		Message:  fmt.Sprintf("%s has been removed.", name),
	}}, nil
}
