package schedule

import "github.com/courtside/commander/go/internal/models"

// TotalPlayingTime sums the minutes of every segment belonging to playerID
// across all quarters and positions.
func TotalPlayingTime(s models.Schedule, playerID string) int {
	total := 0
	for _, key := range models.QuarterKeys {
		quarter := s.Quarter(key)
		for _, pos := range quarter {
			for _, seg := range pos {
				if seg.PlayerID == playerID {
					total += seg.Minutes
				}
			}
		}
	}
	return total
}

// OnCourt returns the ids of the players ending the quarter on court: the
// last segment of each occupied position.
func OnCourt(s models.Schedule, quarter models.QuarterKey) map[string]bool {
	out := make(map[string]bool)
	q := s.Quarter(quarter)
	if q == nil {
		return out
	}
	for _, pos := range q {
		if len(pos) > 0 {
			out[pos[len(pos)-1].PlayerID] = true
		}
	}
	return out
}

// OnCourtAnyQuarter returns the ids of players who are the closing occupant
// of at least one position in any quarter.
func OnCourtAnyQuarter(s models.Schedule) map[string]bool {
	out := make(map[string]bool)
	for _, key := range models.QuarterKeys {
		for id := range OnCourt(s, key) {
			out[id] = true
		}
	}
	return out
}

// PositionMinutes sums the scheduled minutes at one court position.
func PositionMinutes(s models.Schedule, quarter models.QuarterKey, pos int) int {
	q := s.Quarter(quarter)
	if q == nil || pos < 0 || pos >= models.PositionsPerQuarter {
		return 0
	}
	return positionMinutes(q[pos])
}

// Overbooked reports whether a position's scheduled minutes exceed the
// quarter length. This is a soft constraint: the schedule is still valid.
func Overbooked(s models.Schedule, quarter models.QuarterKey, pos int, rules Rules) bool {
	return PositionMinutes(s, quarter, pos) > rules.QuarterMinutes
}
