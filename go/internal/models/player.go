package models

// Player represents one roster entry in a game plan.
type Player struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	JerseyNumber string `json:"jersey_number,omitempty"`
	Position     string `json:"position,omitempty"`
}
