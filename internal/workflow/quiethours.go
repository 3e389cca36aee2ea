package workflow

import (
	"fmt"
	"time"

	"opshub/internal/pkg/config"
	"opshub/internal/pkg/errs"
)

// QuietHours is a daily local-time window in which outbound messages must not
// be sent. The window may cross midnight (21:00 to 08:00).
type QuietHours struct {
	startMinute int
	endMinute   int
	loc         *time.Location
}

func NewQuietHours(cfg config.MissedCallConfig) (*QuietHours, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, errs.Wrap(err, "invalid quiet hours timezone")
	}
	start, err := parseWallClock(cfg.QuietHoursStart)
	if err != nil {
		return nil, errs.Wrap(err, "invalid quiet hours start")
	}
	end, err := parseWallClock(cfg.QuietHoursEnd)
	if err != nil {
		return nil, errs.Wrap(err, "invalid quiet hours end")
	}
	return &QuietHours{startMinute: start, endMinute: end, loc: loc}, nil
}

// Contains reports whether t falls inside the window. The window is half-open
// [start, end); a send exactly at the end boundary is allowed.
func (q *QuietHours) Contains(t time.Time) bool {
	local := t.In(q.loc)
	minute := local.Hour()*60 + local.Minute()

	if q.startMinute == q.endMinute {
		return false
	}
	if q.startMinute < q.endMinute {
		return minute >= q.startMinute && minute < q.endMinute
	}
	// Crosses midnight.
	return minute >= q.startMinute || minute < q.endMinute
}

// NextEnd returns the first instant at or after t outside the window. For a
// time already outside it returns t unchanged.
func (q *QuietHours) NextEnd(t time.Time) time.Time {
	if !q.Contains(t) {
		return t
	}

	local := t.In(q.loc)
	end := time.Date(local.Year(), local.Month(), local.Day(), q.endMinute/60, q.endMinute%60, 0, 0, q.loc)
	if !end.After(local) {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

func parseWallClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, errs.New("wall clock out of range: " + s)
	}
	return h*60 + m, nil
}
