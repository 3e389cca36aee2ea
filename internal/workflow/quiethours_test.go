//go:build unit

package workflow_test

import (
	"testing"
	"time"

	"opshub/internal/pkg/config"
	"opshub/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietCfg(start, end, tz string) config.MissedCallConfig {
	return config.MissedCallConfig{
		QuietHoursStart: start,
		QuietHoursEnd:   end,
		Timezone:        tz,
	}
}

func utc(h, m int) time.Time {
	return time.Date(2026, 3, 10, h, m, 0, 0, time.UTC)
}

func TestQuietHoursCrossingMidnight(t *testing.T) {
	q, err := workflow.NewQuietHours(quietCfg("21:00", "08:00", "UTC"))
	require.NoError(t, err)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{name: "afternoon", at: utc(15, 0), want: false},
		{name: "just before window", at: utc(20, 59), want: false},
		{name: "window start", at: utc(21, 0), want: true},
		{name: "midnight", at: utc(0, 0), want: true},
		{name: "early morning", at: utc(7, 59), want: true},
		{name: "window end boundary", at: utc(8, 0), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, q.Contains(tt.at))
		})
	}
}

func TestQuietHoursSameDayWindow(t *testing.T) {
	q, err := workflow.NewQuietHours(quietCfg("12:00", "13:00", "UTC"))
	require.NoError(t, err)

	assert.False(t, q.Contains(utc(11, 59)))
	assert.True(t, q.Contains(utc(12, 0)))
	assert.True(t, q.Contains(utc(12, 30)))
	assert.False(t, q.Contains(utc(13, 0)))
}

func TestQuietHoursEmptyWindow(t *testing.T) {
	q, err := workflow.NewQuietHours(quietCfg("08:00", "08:00", "UTC"))
	require.NoError(t, err)

	assert.False(t, q.Contains(utc(8, 0)))
	assert.False(t, q.Contains(utc(20, 0)))
}

func TestQuietHoursNextEnd(t *testing.T) {
	q, err := workflow.NewQuietHours(quietCfg("21:00", "08:00", "UTC"))
	require.NoError(t, err)

	t.Run("outside window returns input", func(t *testing.T) {
		at := utc(15, 0)
		assert.Equal(t, at, q.NextEnd(at))
	})

	t.Run("evening defers to next morning", func(t *testing.T) {
		got := q.NextEnd(utc(22, 0))
		assert.Equal(t, time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC), got)
	})

	t.Run("early morning defers to same morning", func(t *testing.T) {
		got := q.NextEnd(utc(5, 0))
		assert.Equal(t, time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), got)
	})
}

func TestQuietHoursTimezoneConversion(t *testing.T) {
	q, err := workflow.NewQuietHours(quietCfg("21:00", "08:00", "America/Chicago"))
	require.NoError(t, err)

	// 2026-03-10 is CDT (UTC-5): 03:00 UTC is 22:00 local, inside the window.
	assert.True(t, q.Contains(time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC)))
	// 18:00 UTC is 13:00 local, outside.
	assert.False(t, q.Contains(time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)))
}

func TestQuietHoursRejectsBadConfig(t *testing.T) {
	_, err := workflow.NewQuietHours(quietCfg("25:00", "08:00", "UTC"))
	assert.Error(t, err)

	_, err = workflow.NewQuietHours(quietCfg("21:00", "08:00", "Not/AZone"))
	assert.Error(t, err)
}
