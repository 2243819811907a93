package services

// Duration input bounds for custom estimates. Out-of-range input is clamped
// at these boundaries, never rejected.
const (
	MaxCustomHours   = 12
	MaxCustomMinutes = 59
)

// PresetMinutes are the fixed duration choices offered alongside the
// custom hours/minutes input.
var PresetMinutes = []int{30, 60, 90}

// IsPresetDuration reports whether minutes is one of the preset choices
func IsPresetDuration(minutes int) bool {
	for _, m := range PresetMinutes {
		if m == minutes {
			return true
		}
	}
	return false
}

// EstimatedHoursFromPreset converts a preset duration in minutes to the
// canonical estimated-hours value used for countdown math
func EstimatedHoursFromPreset(minutes int) float64 {
	return float64(minutes) / 60.0
}

// ClampCustomDuration clamps a custom hours/minutes pair into range
// (0-12 hours, 0-59 minutes). Negative input clamps to zero.
func ClampCustomDuration(hours, minutes int) (int, int) {
	if hours < 0 {
		hours = 0
	}
	if hours > MaxCustomHours {
		hours = MaxCustomHours
	}
	if minutes < 0 {
		minutes = 0
	}
	if minutes > MaxCustomMinutes {
		minutes = MaxCustomMinutes
	}
	return hours, minutes
}

// EstimatedHoursFromCustom converts a custom hours/minutes pair to the
// canonical estimated-hours value, clamping the inputs first
func EstimatedHoursFromCustom(hours, minutes int) float64 {
	hours, minutes = ClampCustomDuration(hours, minutes)
	return float64(hours) + float64(minutes)/60.0
}
