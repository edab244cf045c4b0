package domain

import (
	"fmt"
	"time"
)

// CurrentWeekKey returns the ISO-8601 week key ("2026-W35") for t.
func CurrentWeekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// WeekBounds returns the UTC start (Monday 00:00) and end (next Monday
// 00:00) of the ISO week containing t.
func WeekBounds(t time.Time) (start, end time.Time) {
	t = t.UTC()
	weekday := int(t.Weekday())
	if weekday == 0 { // Sunday is day 7 in ISO numbering
		weekday = 7
	}
	start = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -(weekday - 1))
	end = start.AddDate(0, 0, 7)
	return start, end
}

// WeekStatusAt builds the dashboard view of the week containing t.
func WeekStatusAt(t time.Time) WeekStatus {
	start, end := WeekBounds(t)
	left := int64(end.Sub(t.UTC()).Seconds())
	if left < 0 {
		left = 0
	}
	return WeekStatus{
		Key:         CurrentWeekKey(t),
		Start:       start,
		End:         end,
		NextReset:   end,
		SecondsLeft: left,
	}
}

// RecentWeekKeys lists the n week keys ending at the week containing t,
// newest first.
func RecentWeekKeys(t time.Time, n int) []string {
	keys := make([]string, 0, n)
	for i := 0; i < n; i++ {
		keys = append(keys, CurrentWeekKey(t.AddDate(0, 0, -7*i)))
	}
	return keys
}
