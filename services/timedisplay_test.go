package services

import (
	"testing"
	"time"

	"github.com/rafael-ortega/garage-flow-api/models"
	"github.com/stretchr/testify/assert"
)

func TestFormatClock(t *testing.T) {
	tests := []struct {
		name     string
		seconds  int64
		expected string
	}{
		{"zero", 0, "00:00:00"},
		{"under a minute", 42, "00:00:42"},
		{"minutes and seconds", 312, "00:05:12"},
		{"full hours", 7200, "02:00:00"},
		{"mixed", 3723, "01:02:03"},
		{"negative keeps sign", -312, "-00:05:12"},
		{"negative hours", -7265, "-02:01:05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatClock(tt.seconds))
		})
	}
}

func TestFormatDaySpan(t *testing.T) {
	tests := []struct {
		name     string
		seconds  int64
		expected string
	}{
		{"exactly one day", 86400, "1 day"},
		{"one day plus hours", 86400 + 2*3600, "1 day 2 hours"},
		{"days hours minutes", 2*86400 + 3600 + 5*60, "2 days 1 hour 5 minutes"},
		{"zero hours are omitted", 3*86400 + 42*60, "3 days 42 minutes"},
		{"singular minute", 86400 + 60, "1 day 1 minute"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatDaySpan(tt.seconds))
		})
	}
}

func TestElapsedSeconds(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(-90 * time.Minute)
	end := now.Add(-30 * time.Minute)

	t.Run("no start time", func(t *testing.T) {
		seconds, ticking := ElapsedSeconds(nil, nil, now)
		assert.Equal(t, int64(0), seconds)
		assert.False(t, ticking)
	})

	t.Run("running stage ticks against now", func(t *testing.T) {
		seconds, ticking := ElapsedSeconds(&start, nil, now)
		assert.Equal(t, int64(90*60), seconds)
		assert.True(t, ticking)
	})

	t.Run("ended stage is frozen at end minus start", func(t *testing.T) {
		seconds, ticking := ElapsedSeconds(&start, &end, now)
		assert.Equal(t, int64(60*60), seconds)
		assert.False(t, ticking)

		// Advancing the clock does not change a frozen value
		later := now.Add(4 * time.Hour)
		frozen, _ := ElapsedSeconds(&start, &end, later)
		assert.Equal(t, seconds, frozen)
	})
}

func TestElapsedDisplay(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("never started", func(t *testing.T) {
		assert.Equal(t, "Not started", ElapsedDisplay(nil, nil, now))
	})

	t.Run("under a day uses clock format", func(t *testing.T) {
		start := now.Add(-2 * time.Hour)
		assert.Equal(t, "02:00:00", ElapsedDisplay(&start, nil, now))
	})

	t.Run("a day or more switches to day format", func(t *testing.T) {
		start := now.Add(-26*time.Hour - 5*time.Minute)
		assert.Equal(t, "1 day 2 hours 5 minutes", ElapsedDisplay(&start, nil, now))
	})
}

func TestCountdownSeconds(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(-30 * time.Minute)

	t.Run("static budget before the stage runs", func(t *testing.T) {
		got := CountdownSeconds(models.StageStatusNotStarted, 2.0, nil, now)
		assert.Equal(t, int64(7200), got)
	})

	t.Run("paused stage shows the full budget, not a ticking value", func(t *testing.T) {
		got := CountdownSeconds(models.StageStatusPaused, 2.0, &start, now)
		assert.Equal(t, int64(7200), got)
	})

	t.Run("in-progress stage counts down", func(t *testing.T) {
		got := CountdownSeconds(models.StageStatusInProgress, 2.0, &start, now)
		assert.Equal(t, int64(7200-1800), got)
	})

	t.Run("overrun goes negative without clamping", func(t *testing.T) {
		longStart := now.Add(-3 * time.Hour)
		got := CountdownSeconds(models.StageStatusInProgress, 2.0, &longStart, now)
		assert.Equal(t, int64(-3600), got)
	})
}

func TestCountdownDisplay(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("static estimate renders as clock", func(t *testing.T) {
		got := CountdownDisplay(models.StageStatusNotStarted, 1.5, nil, now)
		assert.Equal(t, "01:30:00", got)
	})

	t.Run("overrun renders with a leading minus", func(t *testing.T) {
		start := now.Add(-95 * time.Minute)
		got := CountdownDisplay(models.StageStatusInProgress, 1.5, &start, now)
		assert.Equal(t, "-00:05:00", got)
	})
}
