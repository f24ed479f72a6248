package schedule

// Rules holds the timing configuration for a plan.
type Rules struct {
	// QuarterMinutes is the length of one quarter. Segment minutes are
	// clamped to [0, QuarterMinutes] on every write.
	QuarterMinutes int `json:"quarter_minutes" yaml:"quarter_minutes"`

	// SubstitutionMinutes is the default stint length for a segment added
	// to a position that already has an occupant. The first occupant of a
	// position gets the full quarter instead.
	SubstitutionMinutes int `json:"substitution_minutes" yaml:"substitution_minutes"`
}

// DefaultRules returns the standard 10 minute quarter with 6 minute
// substitution stints.
func DefaultRules() Rules {
	return Rules{
		QuarterMinutes:      10,
		SubstitutionMinutes: 6,
	}
}

// ClampMinutes bounds a minutes value to [0, QuarterMinutes].
func (r Rules) ClampMinutes(minutes int) int {
	if minutes < 0 {
		return 0
	}
	if minutes > r.QuarterMinutes {
		return r.QuarterMinutes
	}
	return minutes
}
