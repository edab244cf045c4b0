package domain

import (
	"testing"
	"time"
)

func TestCurrentWeekKey(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
		want string
	}{
		{
			name: "midweek",
			time: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
			want: "2026-W35",
		},
		{
			name: "single digit week is zero padded",
			time: time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC),
			want: "2026-W02",
		},
		{
			name: "early january belongs to previous iso year",
			time: time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
			want: "2026-W53",
		},
		{
			name: "late december can belong to next iso year",
			time: time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC),
			want: "2025-W01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CurrentWeekKey(tt.time); got != tt.want {
				t.Errorf("CurrentWeekKey(%v) = %q, want %q", tt.time, got, tt.want)
			}
		})
	}
}

func TestWeekBounds(t *testing.T) {
	// Tuesday 2026-08-25: week runs Monday 24th through Monday 31st.
	start, end := WeekBounds(time.Date(2026, 8, 25, 15, 30, 0, 0, time.UTC))

	wantStart := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", end, wantEnd)
	}
}

func TestWeekBoundsSunday(t *testing.T) {
	// Sunday is day 7 of the ISO week, not day 0.
	start, _ := WeekBounds(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC))

	wantStart := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
}

func TestWeekStatusAt(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	status := WeekStatusAt(now)

	if status.Key != "2026-W35" {
		t.Errorf("Key = %q, want 2026-W35", status.Key)
	}
	if !status.NextReset.Equal(status.End) {
		t.Errorf("NextReset = %v, want %v", status.NextReset, status.End)
	}
	wantLeft := int64(status.End.Sub(now).Seconds())
	if status.SecondsLeft != wantLeft {
		t.Errorf("SecondsLeft = %d, want %d", status.SecondsLeft, wantLeft)
	}
}

func TestRecentWeekKeys(t *testing.T) {
	now := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	keys := RecentWeekKeys(now, 3)

	want := []string{"2026-W35", "2026-W34", "2026-W33"}
	if len(keys) != len(want) {
		t.Fatalf("got %d keys, want %d", len(keys), len(want))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestBoardHelpers(t *testing.T) {
	weekly := WeeklyBoard("2026-W35")
	if string(weekly) != "weekly:2026-W35" {
		t.Errorf("WeeklyBoard = %q", weekly)
	}
	if !weekly.IsWeekly() {
		t.Error("weekly board should report IsWeekly")
	}
	if got := weekly.WeekKey(); got != "2026-W35" {
		t.Errorf("WeekKey = %q, want 2026-W35", got)
	}

	if BoardGlobal.IsWeekly() {
		t.Error("global board must not report IsWeekly")
	}
	if got := BoardGlobal.WeekKey(); got != "" {
		t.Errorf("global WeekKey = %q, want empty", got)
	}
}
