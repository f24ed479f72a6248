package plan_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside/commander/go/internal/models"
	"github.com/courtside/commander/go/internal/plan"
	"github.com/courtside/commander/go/internal/schedule"
)

func repairPaths(repairs []plan.Repair) []string {
	out := make([]string, 0, len(repairs))
	for _, r := range repairs {
		out = append(out, r.Path)
	}
	return out
}

func TestRawToPlanCleanRecord(t *testing.T) {
	raw := []byte(`{
		"id": "plan-1",
		"name": "Season Opener",
		"updated_at": "2026-08-30T12:00:00Z",
		"players": [{"id": "p1", "name": "Sam", "jersey_number": "7", "position": "PG"}],
		"schedule": {
			"Q1": [[{"id": "s1", "player_id": "p1", "minutes": 10}], [], [], [], []],
			"Q2": [[], [], [], [], []],
			"Q3": [[], [], [], [], []],
			"Q4": [[], [], [], [], []]
		}
	}`)

	p, repairs := plan.RawToPlan(raw, schedule.DefaultRules())
	assert.Empty(t, repairs)
	assert.Equal(t, "plan-1", p.ID)
	assert.Equal(t, "Season Opener", p.Name)
	require.Len(t, p.Players, 1)
	assert.Equal(t, "7", p.Players[0].JerseyNumber)

	segs := p.Schedule.Q1[0]
	require.Len(t, segs, 1)
	assert.Equal(t, models.Segment{ID: "s1", PlayerID: "p1", Minutes: 10}, segs[0])
}

func TestRawToPlanNonObjectRoot(t *testing.T) {
	for _, raw := range []string{`"just a string"`, `[1,2,3]`, `null`, `not json at all`} {
		p, repairs := plan.RawToPlan([]byte(raw), schedule.DefaultRules())
		assert.NotEmpty(t, p.ID, raw)
		assert.Equal(t, "Untitled Plan", p.Name, raw)
		assert.Empty(t, p.Players, raw)
		assert.Contains(t, repairPaths(repairs), "$", raw)
	}
}

func TestRawToPlanMissingFields(t *testing.T) {
	p, repairs := plan.RawToPlan([]byte(`{}`), schedule.DefaultRules())

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Untitled Plan", p.Name)
	assert.Empty(t, p.Players)
	assert.Equal(t, models.NewEmptySchedule(), p.Schedule)

	paths := repairPaths(repairs)
	assert.Contains(t, paths, "id")
	assert.Contains(t, paths, "name")
	assert.Contains(t, paths, "players")
	assert.Contains(t, paths, "schedule")
}

func TestRawToPlanPlayerRepairs(t *testing.T) {
	raw := []byte(`{
		"id": "plan-1", "name": "X",
		"players": [
			{"id": "p1", "name": "Sam"},
			"not an object",
			{"name": "No ID"},
			{"id": "p3"}
		]
	}`)

	p, repairs := plan.RawToPlan(raw, schedule.DefaultRules())
	require.Len(t, p.Players, 3, "non-object entry dropped")
	assert.Equal(t, "p1", p.Players[0].ID)
	assert.NotEmpty(t, p.Players[1].ID, "missing id generated")
	assert.Equal(t, "No ID", p.Players[1].Name)
	assert.Equal(t, "Unknown Player", p.Players[2].Name)

	paths := repairPaths(repairs)
	assert.Contains(t, paths, "players[1]")
	assert.Contains(t, paths, "players[2].id")
	assert.Contains(t, paths, "players[3].name")
}

func TestRawToPlanSlotRevision(t *testing.T) {
	raw := []byte(`{
		"id": "plan-1", "name": "X", "players": [],
		"schedule": {
			"Q1": [{"playerId": "p1", "minutes": 6}, null, {}, null, null],
			"Q2": [[], [], [], [], []],
			"Q3": [[], [], [], [], []],
			"Q4": [[], [], [], [], []]
		}
	}`)

	p, repairs := plan.RawToPlan(raw, schedule.DefaultRules())

	segs := p.Schedule.Q1[0]
	require.Len(t, segs, 1)
	assert.Equal(t, "p1", segs[0].PlayerID)
	assert.Equal(t, 6, segs[0].Minutes)
	assert.NotEmpty(t, segs[0].ID, "slot revisions carry no segment id")

	assert.Empty(t, p.Schedule.Q1[2], "empty slot object is an empty position")
	assert.NotEmpty(t, repairs)
}

func TestRawToPlanStringRevision(t *testing.T) {
	raw := []byte(`{
		"id": "plan-1", "name": "X", "players": [],
		"schedule": {
			"Q1": ["p1", "", null, "p2", null],
			"Q2": [[], [], [], [], []],
			"Q3": [[], [], [], [], []],
			"Q4": [[], [], [], [], []]
		}
	}`)

	p, _ := plan.RawToPlan(raw, schedule.DefaultRules())

	require.Len(t, p.Schedule.Q1[0], 1)
	assert.Equal(t, "p1", p.Schedule.Q1[0][0].PlayerID)
	assert.Equal(t, 10, p.Schedule.Q1[0][0].Minutes, "oldest revision assumes a full quarter")
	assert.Empty(t, p.Schedule.Q1[1], "empty string is an empty position")
	assert.Equal(t, "p2", p.Schedule.Q1[3][0].PlayerID)
}

func TestRawToPlanSegmentRepairs(t *testing.T) {
	raw := []byte(`{
		"id": "plan-1", "name": "X", "players": [],
		"schedule": {
			"Q1": [[
				{"player_id": "p1"},
				{"player_id": "p2", "minutes": 99},
				{"minutes": 5},
				42
			], [], [], [], []],
			"Q2": [[], [], [], [], []],
			"Q3": [[], [], [], [], []],
			"Q4": [[], [], [], [], []]
		}
	}`)

	p, repairs := plan.RawToPlan(raw, schedule.DefaultRules())

	segs := p.Schedule.Q1[0]
	require.Len(t, segs, 2)
	assert.Equal(t, 10, segs[0].Minutes, "missing minutes default to full quarter")
	assert.NotEmpty(t, segs[0].ID)
	assert.Equal(t, 10, segs[1].Minutes, "out-of-range minutes clamp")
	assert.NotEmpty(t, repairs)
}

func TestRawToPlanOversizedQuarterTruncates(t *testing.T) {
	raw := []byte(`{
		"id": "plan-1", "name": "X", "players": [],
		"schedule": {
			"Q1": [["p1"], [], [], [], [], [], []],
			"Q2": [[], [], [], [], []],
			"Q3": [[], [], [], [], []],
			"Q4": [[], [], [], [], []]
		}
	}`)

	p, repairs := plan.RawToPlan(raw, schedule.DefaultRules())
	assert.Len(t, p.Schedule.Q1, models.PositionsPerQuarter)
	assert.Contains(t, repairPaths(repairs), "schedule.Q1")
}

func TestRawToPlanRoundTrip(t *testing.T) {
	e := schedule.NewEngine(schedule.DefaultRules())
	original := models.NewPlan("plan-1", "Round Trip")
	original.Players = []models.Player{{ID: "p1", Name: "Sam", Position: "PF"}}
	original.Schedule, _ = e.AssignPlayer(original.Schedule, "p1", models.QuarterQ3, 2, nil)

	raw, err := json.Marshal(original)
	require.NoError(t, err)

	restored, repairs := plan.RawToPlan(raw, schedule.DefaultRules())
	assert.Empty(t, repairs, "canonical records need no repair")
	assert.Equal(t, original.ID, restored.ID)
	assert.Equal(t, original.Players, restored.Players)
	assert.Equal(t, original.Schedule, restored.Schedule)
}
