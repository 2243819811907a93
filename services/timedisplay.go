package services

import (
	"fmt"
	"time"

	"github.com/rafael-ortega/garage-flow-api/models"
)

// ElapsedNotStarted is shown for a stage that has never been started
const ElapsedNotStarted = "Not started"

const secondsPerDay = 24 * 60 * 60

// FormatClock renders a second count as HH:MM:SS. Negative input keeps its
// sign so countdown overruns stay visible, e.g. -00:05:12.
func FormatClock(seconds int64) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, h, m, s)
}

// FormatDaySpan renders a second count of a day or more as
// "N day(s) [H hour(s)] [M minute(s)]", omitting zero-valued hours and
// minutes but always keeping days.
func FormatDaySpan(seconds int64) string {
	days := seconds / secondsPerDay
	hours := (seconds % secondsPerDay) / 3600
	minutes := (seconds % 3600) / 60

	out := fmt.Sprintf("%d %s", days, pluralize(days, "day"))
	if hours > 0 {
		out += fmt.Sprintf(" %d %s", hours, pluralize(hours, "hour"))
	}
	if minutes > 0 {
		out += fmt.Sprintf(" %d %s", minutes, pluralize(minutes, "minute"))
	}
	return out
}

func pluralize(n int64, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}

// ElapsedSeconds returns the elapsed seconds for a stage run and whether the
// value is still ticking. Without a start time it returns (0, false); with an
// end time the value is frozen at end-start; otherwise it tracks now-start.
func ElapsedSeconds(start, end *time.Time, now time.Time) (int64, bool) {
	if start == nil {
		return 0, false
	}
	if end != nil {
		return int64(end.Sub(*start).Seconds()), false
	}
	return int64(now.Sub(*start).Seconds()), true
}

// ElapsedDisplay renders the elapsed-time projection for a stage:
// "Not started" before the first start, a frozen duration once ended,
// and a ticking duration while running. Durations under 24h use HH:MM:SS,
// longer ones switch to the day-scale format.
func ElapsedDisplay(start, end *time.Time, now time.Time) string {
	if start == nil {
		return ElapsedNotStarted
	}
	seconds, _ := ElapsedSeconds(start, end, now)
	if seconds < 0 {
		seconds = 0
	}
	if seconds >= secondsPerDay {
		return FormatDaySpan(seconds)
	}
	return FormatClock(seconds)
}

// CountdownSeconds returns the remaining seconds against the estimate.
// Only meaningful while the stage is in progress; the value goes negative
// once the run overshoots the estimate (no clamping).
func CountdownSeconds(status string, estimatedHours float64, start *time.Time, now time.Time) int64 {
	budget := int64(estimatedHours * 3600)
	if status != models.StageStatusInProgress || start == nil {
		return budget
	}
	elapsed := int64(now.Sub(*start).Seconds())
	return budget - elapsed
}

// CountdownDisplay renders the countdown projection for a stage: the static
// estimated duration unless the stage is running, and the live remaining
// time (negative once overrun) while it is.
func CountdownDisplay(status string, estimatedHours float64, start *time.Time, now time.Time) string {
	return FormatClock(CountdownSeconds(status, estimatedHours, start, now))
}
