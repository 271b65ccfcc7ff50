package fuzzy

// MaxDurationMS is the upper bound of the watering time domain.
const MaxDurationMS = 120000

// Status labels, ordered from no watering to the longest band.
const (
	StatusNoWater   = "No watering needed (soil is wet)"
	StatusVeryShort = "Very short watering (cooling)"
	StatusShort     = "Short watering"
	StatusMedium    = "Medium watering"
	StatusLong      = "Long watering (very dry soil)"
)

// Decision is the formatted result of one evaluation.
type Decision struct {
	DurationMS      int    `json:"duration_ms"`
	DurationSeconds int    `json:"duration_seconds"`
	Status          string `json:"status"`
}

// Format wraps a duration in milliseconds into a Decision. Negative
// durations are clamped to 0.
func Format(durationMS int) Decision {
	durationMS = max(durationMS, 0)
	return Decision{
		DurationMS:      durationMS,
		DurationSeconds: durationMS / 1000,
		Status:          Status(durationMS),
	}
}

// Status returns the label for a duration. Each band includes its upper bound.
func Status(durationMS int) string {
	switch {
	case durationMS <= 0:
		return StatusNoWater
	case durationMS <= 15000:
		return StatusVeryShort
	case durationMS <= 40000:
		return StatusShort
	case durationMS <= 70000:
		return StatusMedium
	default:
		return StatusLong
	}
}

// PumpOn reports whether the decision requires a pump command.
func (d Decision) PumpOn() bool {
	return d.DurationMS > 0
}
