package plan

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/courtside/commander/go/internal/models"
	"github.com/courtside/commander/go/internal/schedule"
)

// Repair records one fix applied while normalizing a stored record.
type Repair struct {
	Path   string `json:"path"`
	Detail string `json:"detail"`
}

// RawToPlan maps an untyped, possibly malformed stored record onto the
// canonical plan shape. Loading never fails: missing or wrong-shaped fields
// are rebuilt with defaults, missing ids are generated, and every fix is
// reported. The store has carried several schedule revisions over time —
// positions as segment arrays, single slot objects, and bare player-id
// strings — and all of them normalize here.
func RawToPlan(raw []byte, rules schedule.Rules) (models.Plan, []Repair) {
	var repairs []Repair
	repair := func(path, detail string) {
		repairs = append(repairs, Repair{Path: path, Detail: detail})
	}

	var root map[string]any
	if err := json.Unmarshal(raw, &root); err != nil || root == nil {
		repair("$", "record is not an object, rebuilt empty plan")
		root = map[string]any{}
	}

	out := models.Plan{Schedule: models.NewEmptySchedule()}

	if id, ok := root["id"].(string); ok && id != "" {
		out.ID = id
	} else {
		out.ID = uuid.New().String()
		repair("id", "missing plan id, generated")
	}

	if name, ok := root["name"].(string); ok && name != "" {
		out.Name = name
	} else {
		out.Name = "Untitled Plan"
		repair("name", "missing plan name, defaulted")
	}

	if ts, ok := root["updated_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			out.UpdatedAt = t
		}
	}

	out.Players = normalizePlayers(root["players"], repair)

	rawSchedule, ok := root["schedule"].(map[string]any)
	if !ok {
		repair("schedule", "missing schedule, rebuilt empty")
		rawSchedule = map[string]any{}
	}
	for _, key := range models.QuarterKeys {
		*out.Schedule.Quarter(key) = normalizeQuarter(rawSchedule[string(key)], string(key), rules, repair)
	}

	return out, repairs
}

func normalizePlayers(v any, repair func(path, detail string)) []models.Player {
	players := []models.Player{}
	list, ok := v.([]any)
	if !ok {
		if v != nil {
			repair("players", "players is not an array, reset to empty")
		} else {
			repair("players", "missing players array, reset to empty")
		}
		return players
	}

	for i, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			repair(fmt.Sprintf("players[%d]", i), "entry is not an object, dropped")
			continue
		}
		p := models.Player{}
		if id, ok := obj["id"].(string); ok && id != "" {
			p.ID = id
		} else {
			p.ID = uuid.New().String()
			repair(fmt.Sprintf("players[%d].id", i), "missing player id, generated")
		}
		if name, ok := obj["name"].(string); ok && name != "" {
			p.Name = name
		} else {
			p.Name = "Unknown Player"
			repair(fmt.Sprintf("players[%d].name", i), "missing player name, defaulted")
		}
		p.JerseyNumber, _ = obj["jersey_number"].(string)
		p.Position, _ = obj["position"].(string)
		players = append(players, p)
	}
	return players
}

func normalizeQuarter(v any, key string, rules schedule.Rules, repair func(path, detail string)) models.Quarter {
	var quarter models.Quarter
	list, ok := v.([]any)
	if !ok {
		repair("schedule."+key, "missing quarter, rebuilt empty")
		return quarter
	}
	if len(list) > models.PositionsPerQuarter {
		repair("schedule."+key, fmt.Sprintf("%d positions stored, truncated to %d", len(list), models.PositionsPerQuarter))
		list = list[:models.PositionsPerQuarter]
	}

	for i, rawPos := range list {
		path := fmt.Sprintf("schedule.%s[%d]", key, i)
		switch pos := rawPos.(type) {
		case []any:
			quarter[i] = normalizeSegments(pos, path, rules, repair)
		case map[string]any:
			// Single-slot revision: one {playerId, minutes} object per position.
			if seg, ok := slotToSegment(pos, path, rules, repair); ok {
				quarter[i] = models.Position{seg}
			}
			repair(path, "slot-format position migrated to segment list")
		case string:
			// Oldest revision: bare player id, full quarter assumed.
			if pos != "" {
				quarter[i] = models.Position{{
					ID:       uuid.New().String(),
					PlayerID: pos,
					Minutes:  rules.QuarterMinutes,
				}}
			}
			repair(path, "player-id string migrated to segment list")
		case nil:
			// Empty position.
		default:
			repair(path, "unrecognized position shape, reset to empty")
		}
	}
	return quarter
}

func normalizeSegments(list []any, path string, rules schedule.Rules, repair func(path, detail string)) models.Position {
	var out models.Position
	for i, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			repair(fmt.Sprintf("%s[%d]", path, i), "segment is not an object, dropped")
			continue
		}
		if seg, ok := slotToSegment(obj, fmt.Sprintf("%s[%d]", path, i), rules, repair); ok {
			out = append(out, seg)
		}
	}
	return out
}

func slotToSegment(obj map[string]any, path string, rules schedule.Rules, repair func(path, detail string)) (models.Segment, bool) {
	playerID, _ := stringField(obj, "player_id", "playerId")
	if playerID == "" {
		// A null occupant is an empty slot, not a segment.
		return models.Segment{}, false
	}

	seg := models.Segment{PlayerID: playerID}
	if id, _ := stringField(obj, "id"); id != "" {
		seg.ID = id
	} else {
		seg.ID = uuid.New().String()
		repair(path+".id", "missing segment id, generated")
	}

	if minutes, ok := obj["minutes"].(float64); ok {
		seg.Minutes = rules.ClampMinutes(int(minutes))
	} else {
		seg.Minutes = rules.QuarterMinutes
		repair(path+".minutes", "missing minutes, defaulted to full quarter")
	}
	return seg, true
}

func stringField(obj map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := obj[key].(string); ok {
			return v, true
		}
	}
	return "", false
}
