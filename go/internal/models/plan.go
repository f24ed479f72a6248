package models

import "time"

// Plan is the unit of persistence: a named roster plus its schedule.
type Plan struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Players   []Player  `json:"players"`
	Schedule  Schedule  `json:"schedule"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewPlan returns an empty plan with the given identity.
func NewPlan(id, name string) Plan {
	return Plan{
		ID:       id,
		Name:     name,
		Players:  []Player{},
		Schedule: NewEmptySchedule(),
	}
}

// Clone returns a deep copy of the plan.
func (p Plan) Clone() Plan {
	out := p
	out.Players = make([]Player, len(p.Players))
	copy(out.Players, p.Players)
	out.Schedule = p.Schedule.Clone()
	return out
}

// FindPlayer returns the roster entry with the given id, or nil.
func (p *Plan) FindPlayer(playerID string) *Player {
	for i := range p.Players {
		if p.Players[i].ID == playerID {
			return &p.Players[i]
		}
	}
	return nil
}
