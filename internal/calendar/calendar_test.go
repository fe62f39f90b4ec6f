package calendar

import (
	"testing"
	"time"
)

func mkTime(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, Taipei)
}

func TestInSession(t *testing.T) {
	cases := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"before open", mkTime(2026, 8, 28, 8, 59), false},
		{"at open", mkTime(2026, 8, 28, 9, 0), true},
		{"mid session", mkTime(2026, 8, 28, 11, 30), true},
		{"last monitored minute", mkTime(2026, 8, 28, 13, 24), true},
		{"monitor end exactly", mkTime(2026, 8, 28, 13, 25), false},
		{"after close", mkTime(2026, 8, 28, 14, 0), false},
	}
	for _, c := range cases {
		if got := InSession(c.t); got != c.want {
			t.Errorf("%s: InSession(%v) = %v, want %v", c.name, c.t, got, c.want)
		}
	}
}

func TestBeforeSeedCutoff(t *testing.T) {
	if !BeforeSeedCutoff(mkTime(2026, 8, 28, 10, 40)) {
		t.Error("10:40 exactly should still be inside the seeding window")
	}
	if BeforeSeedCutoff(mkTime(2026, 8, 28, 10, 41)) {
		t.Error("10:41 should be past the seeding window")
	}
}

func TestMinutesFromOpen(t *testing.T) {
	cases := []struct {
		t    time.Time
		want int
	}{
		{mkTime(2026, 8, 28, 9, 0), 0},
		{mkTime(2026, 8, 28, 9, 31), 31},
		{mkTime(2026, 8, 28, 11, 1), 121},
		{mkTime(2026, 8, 28, 8, 55), -5},
	}
	for _, c := range cases {
		if got := MinutesFromOpen(c.t); got != c.want {
			t.Errorf("MinutesFromOpen(%v) = %d, want %d", c.t, got, c.want)
		}
	}
}

func TestPreviousTradingDay_SkipsWeekend(t *testing.T) {
	// Monday 2026-08-31 → previous trading day is Friday 2026-08-28.
	monday := mkTime(2026, 8, 31, 9, 30)
	prev, err := PreviousTradingDay(monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := mkTime(2026, 8, 28, 0, 0)
	if !prev.Equal(want) {
		t.Errorf("previous trading day = %v, want %v", prev, want)
	}
}

func TestPreviousTradingDay_SkipsHoliday(t *testing.T) {
	// 2026-10-09 is a TWSE closure (National Day adjusted) and 10-10/10-11
	// is a weekend: from Monday 2026-10-12 the previous trading day is
	// Thursday 2026-10-08.
	monday := mkTime(2026, 10, 12, 9, 30)
	prev, err := PreviousTradingDay(monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := mkTime(2026, 10, 8, 0, 0)
	if !prev.Equal(want) {
		t.Errorf("previous trading day = %v, want %v", prev, want)
	}
}

func TestScheduleBetween_Ordered(t *testing.T) {
	days := ScheduleBetween(mkTime(2026, 8, 24, 0, 0), mkTime(2026, 8, 28, 0, 0))
	if len(days) != 5 {
		t.Fatalf("expected 5 trading days Mon-Fri, got %d", len(days))
	}
	for i := 1; i < len(days); i++ {
		if !days[i].After(days[i-1]) {
			t.Errorf("schedule not strictly ascending at index %d", i)
		}
	}
}

func TestIsTradingDay(t *testing.T) {
	if IsTradingDay(mkTime(2026, 8, 29, 12, 0)) {
		t.Error("Saturday should not be a trading day")
	}
	if IsTradingDay(mkTime(2026, 2, 17, 12, 0)) {
		t.Error("Lunar New Year's Day should not be a trading day")
	}
	if !IsTradingDay(mkTime(2026, 8, 28, 12, 0)) {
		t.Error("regular Friday should be a trading day")
	}
}
