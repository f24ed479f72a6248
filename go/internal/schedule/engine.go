package schedule

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/courtside/commander/go/internal/models"
)

// SegmentRef identifies an existing segment on the timeline. A nil ref on
// AssignPlayer means the assignment originates from the roster list rather
// than from dragging an existing segment.
type SegmentRef struct {
	Quarter       models.QuarterKey `json:"quarter"`
	PositionIndex int               `json:"position_index"`
	SegmentID     string            `json:"segment_id"`
}

// Engine applies mutations to a schedule. Every operation deep-copies its
// input and returns the new schedule; prior snapshots are never touched.
type Engine struct {
	rules Rules
}

// NewEngine creates an engine with the given rules.
func NewEngine(rules Rules) *Engine {
	return &Engine{rules: rules}
}

// Rules returns the engine's timing rules.
func (e *Engine) Rules() Rules {
	return e.rules
}

// AssignPlayer places playerID at the target position, relocating the
// segment named by source when present. Within the target quarter the
// player is stripped from every other position, so a player holds at most
// one position per quarter. The operation always succeeds; problems are
// reported as diagnostics.
func (e *Engine) AssignPlayer(s models.Schedule, playerID string, targetQuarter models.QuarterKey, targetPos int, source *SegmentRef) (models.Schedule, []Diagnostic) {
	next := s.Clone()

	quarter := next.Quarter(targetQuarter)
	if quarter == nil || targetPos < 0 || targetPos >= models.PositionsPerQuarter {
		return s, []Diagnostic{warnInvalidTarget(string(targetQuarter), targetPos)}
	}

	if source != nil {
		removeSegment(&next, source.Quarter, source.PositionIndex, source.SegmentID)
	}

	// A drag within the same position is a no-op move; anything else clears
	// the player's other positions in the target quarter.
	samePosition := source != nil &&
		source.Quarter == targetQuarter &&
		source.PositionIndex == targetPos
	if !samePosition {
		for i := range quarter {
			if i == targetPos {
				continue
			}
			quarter[i] = dropPlayer(quarter[i], playerID)
		}
	}

	minutes := e.rules.SubstitutionMinutes
	if len(quarter[targetPos]) == 0 {
		minutes = e.rules.QuarterMinutes
	}
	seg := models.Segment{
		ID:       uuid.New().String(),
		PlayerID: playerID,
		Minutes:  minutes,
	}
	quarter[targetPos] = append(quarter[targetPos], seg)

	log.Debug().
		Str("player_id", playerID).
		Str("quarter", string(targetQuarter)).
		Int("position", targetPos).
		Str("segment_id", seg.ID).
		Msg("assigned player to position")

	var diags []Diagnostic
	if total := positionMinutes(quarter[targetPos]); total > e.rules.QuarterMinutes {
		diags = append(diags, warnOverbooked(string(targetQuarter), targetPos, total, e.rules.QuarterMinutes))
	}
	return next, diags
}

// UnassignSegment removes the segment with the given id from the position.
// A missing segment is a silent no-op; an out-of-range target is a no-op
// with a warning.
func (e *Engine) UnassignSegment(s models.Schedule, quarter models.QuarterKey, pos int, segmentID string) (models.Schedule, []Diagnostic) {
	if s.Quarter(quarter) == nil || pos < 0 || pos >= models.PositionsPerQuarter {
		return s, []Diagnostic{warnInvalidTarget(string(quarter), pos)}
	}
	next := s.Clone()
	removeSegment(&next, quarter, pos, segmentID)
	return next, nil
}

// UpdateSegmentMinutes writes a clamped minutes value onto the segment. The
// write commits even when the position ends up overbooked; that case is
// reported as a warning. A missing segment is a silent no-op; an
// out-of-range target is a no-op with a warning.
func (e *Engine) UpdateSegmentMinutes(s models.Schedule, quarter models.QuarterKey, pos int, segmentID string, minutes int) (models.Schedule, []Diagnostic) {
	next := s.Clone()

	q := next.Quarter(quarter)
	if q == nil || pos < 0 || pos >= models.PositionsPerQuarter {
		return s, []Diagnostic{warnInvalidTarget(string(quarter), pos)}
	}

	for i := range q[pos] {
		if q[pos][i].ID != segmentID {
			continue
		}
		clamped := e.rules.ClampMinutes(minutes)
		q[pos][i].Minutes = clamped

		var diags []Diagnostic
		if clamped != minutes {
			diags = append(diags, infoClamped(minutes, clamped))
		}
		if total := positionMinutes(q[pos]); total > e.rules.QuarterMinutes {
			diags = append(diags, warnOverbooked(string(quarter), pos, total, e.rules.QuarterMinutes))
		}
		return next, diags
	}
	return next, nil
}

// RemovePlayerSegments strips every segment of playerID from every quarter
// and position. Used when a player is deleted from the roster.
func (e *Engine) RemovePlayerSegments(s models.Schedule, playerID string) models.Schedule {
	next := s.Clone()
	for _, key := range models.QuarterKeys {
		quarter := next.Quarter(key)
		for i := range quarter {
			quarter[i] = dropPlayer(quarter[i], playerID)
		}
	}
	return next
}

func removeSegment(s *models.Schedule, quarter models.QuarterKey, pos int, segmentID string) {
	q := s.Quarter(quarter)
	if q == nil || pos < 0 || pos >= models.PositionsPerQuarter {
		return
	}
	kept := q[pos][:0:len(q[pos])]
	for _, seg := range q[pos] {
		if seg.ID != segmentID {
			kept = append(kept, seg)
		}
	}
	q[pos] = kept
}

func dropPlayer(pos models.Position, playerID string) models.Position {
	kept := pos[:0:len(pos)]
	for _, seg := range pos {
		if seg.PlayerID != playerID {
			kept = append(kept, seg)
		}
	}
	return kept
}

func positionMinutes(pos models.Position) int {
	total := 0
	for _, seg := range pos {
		total += seg.Minutes
	}
	return total
}
