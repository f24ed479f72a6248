package schedule

import "fmt"

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
)

// Diagnostic is a user-facing note produced by a mutation. Mutations never
// fail; anything worth telling the user comes back as a diagnostic and the
// host layer decides how to render it.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

const (
	CodePositionOverbooked = "position_overbooked"
	CodeInvalidTarget      = "invalid_target"
	CodeMinutesClamped     = "minutes_clamped"
)

func warnOverbooked(quarter string, position, total, limit int) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Code:     CodePositionOverbooked,
		Message:  fmt.Sprintf("%s position %d totals %d minutes, over the %d minute quarter", quarter, position+1, total, limit),
	}
}

func infoClamped(requested, clamped int) Diagnostic {
	return Diagnostic{
		Severity: SeverityInfo,
		Code:     CodeMinutesClamped,
		Message:  fmt.Sprintf("%d minutes clamped to %d", requested, clamped),
	}
}

func warnInvalidTarget(quarter string, position int) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Code:     CodeInvalidTarget,
		Message:  fmt.Sprintf("no court position %d in quarter %q", position, quarter),
	}
}
