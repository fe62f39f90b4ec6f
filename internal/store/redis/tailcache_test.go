package redis

import (
	"testing"
	"time"

	"github.com/BillyE5/TW-ShortTerm-Trend-Tracker/internal/calendar"
)

func TestTailKey(t *testing.T) {
	date := time.Date(2026, 8, 28, 0, 0, 0, 0, calendar.Taipei)
	got := tailKey("2330", date)
	want := "tail:5m:2330:20260828"
	if got != want {
		t.Fatalf("tailKey = %q want %q", got, want)
	}
}
