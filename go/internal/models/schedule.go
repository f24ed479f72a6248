package models

// QuarterKey identifies one of the four game quarters.
type QuarterKey string

const (
	QuarterQ1 QuarterKey = "Q1"
	QuarterQ2 QuarterKey = "Q2"
	QuarterQ3 QuarterKey = "Q3"
	QuarterQ4 QuarterKey = "Q4"
)

// QuarterKeys lists the quarters in game order.
var QuarterKeys = [4]QuarterKey{QuarterQ1, QuarterQ2, QuarterQ3, QuarterQ4}

// PositionsPerQuarter is the number of concurrent court positions.
const PositionsPerQuarter = 5

// Segment is one contiguous stint of a player occupying a court position
// during a quarter.
type Segment struct {
	ID       string `json:"id"`
	PlayerID string `json:"player_id"`
	Minutes  int    `json:"minutes"`
}

// Position holds the chronological sequence of segments for one court
// position. The last segment is the occupant at the end of the quarter.
type Position []Segment

// Quarter is the fixed set of court positions for one quarter.
type Quarter [PositionsPerQuarter]Position

// Schedule is the full four-quarter assignment plan. Quarters are
// independent of each other.
type Schedule struct {
	Q1 Quarter `json:"Q1"`
	Q2 Quarter `json:"Q2"`
	Q3 Quarter `json:"Q3"`
	Q4 Quarter `json:"Q4"`
}

// NewEmptySchedule returns a schedule with every position empty.
func NewEmptySchedule() Schedule {
	return Schedule{}
}

// Quarter returns a pointer to the quarter for key, or nil for an unknown key.
func (s *Schedule) Quarter(key QuarterKey) *Quarter {
	switch key {
	case QuarterQ1:
		return &s.Q1
	case QuarterQ2:
		return &s.Q2
	case QuarterQ3:
		return &s.Q3
	case QuarterQ4:
		return &s.Q4
	default:
		return nil
	}
}

// Clone returns a deep copy of the schedule. Previously returned snapshots
// stay valid after any mutation of the copy.
func (s Schedule) Clone() Schedule {
	out := Schedule{}
	for _, key := range QuarterKeys {
		src := s.Quarter(key)
		dst := out.Quarter(key)
		for i, pos := range src {
			if pos == nil {
				continue
			}
			cp := make(Position, len(pos))
			copy(cp, pos)
			dst[i] = cp
		}
	}
	return out
}
