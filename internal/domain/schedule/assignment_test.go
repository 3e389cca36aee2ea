//go:build unit

package schedule_test

import (
	"testing"
	"time"

	"opshub/internal/domain/schedule"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(h int) time.Time {
	return time.Date(2026, 3, 10, h, 0, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{
			name:   "disjoint intervals",
			aStart: at(9), aEnd: at(10), bStart: at(11), bEnd: at(12),
			want: false,
		},
		{
			name:   "partial overlap",
			aStart: at(9), aEnd: at(11), bStart: at(10), bEnd: at(12),
			want: true,
		},
		{
			name:   "contained interval",
			aStart: at(9), aEnd: at(12), bStart: at(10), bEnd: at(11),
			want: true,
		},
		{
			name:   "identical intervals",
			aStart: at(9), aEnd: at(10), bStart: at(9), bEnd: at(10),
			want: true,
		},
		{
			name:   "back to back, a before b",
			aStart: at(9), aEnd: at(10), bStart: at(10), bEnd: at(11),
			want: false,
		},
		{
			name:   "back to back, b before a",
			aStart: at(10), aEnd: at(11), bStart: at(9), bEnd: at(10),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := schedule.Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd)
			assert.Equal(t, tt.want, got)

			// The predicate is symmetric.
			assert.Equal(t, tt.want, schedule.Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd))
		})
	}
}

func TestNewAssignment(t *testing.T) {
	now := time.Now()

	t.Run("valid interval", func(t *testing.T) {
		a, err := schedule.NewAssignment(uuid.New(), uuid.New(), uuid.New(), at(9), at(10), now)
		require.NoError(t, err)
		assert.Equal(t, schedule.StatusScheduled, a.Status)
		assert.NotEqual(t, uuid.Nil, a.ID)
	})

	t.Run("start equal to end rejected", func(t *testing.T) {
		_, err := schedule.NewAssignment(uuid.New(), uuid.New(), uuid.New(), at(9), at(9), now)
		assert.ErrorIs(t, err, schedule.ErrInvalidInterval)
	})

	t.Run("start after end rejected", func(t *testing.T) {
		_, err := schedule.NewAssignment(uuid.New(), uuid.New(), uuid.New(), at(10), at(9), now)
		assert.ErrorIs(t, err, schedule.ErrInvalidInterval)
	})
}

func TestOverlapsWith(t *testing.T) {
	a, err := schedule.NewAssignment(uuid.New(), uuid.New(), uuid.New(), at(9), at(11), time.Now())
	require.NoError(t, err)
	b, err := schedule.NewAssignment(uuid.New(), uuid.New(), uuid.New(), at(10), at(12), time.Now())
	require.NoError(t, err)
	c, err := schedule.NewAssignment(uuid.New(), uuid.New(), uuid.New(), at(11), at(12), time.Now())
	require.NoError(t, err)

	assert.True(t, a.OverlapsWith(b))
	assert.False(t, a.OverlapsWith(c))
}
