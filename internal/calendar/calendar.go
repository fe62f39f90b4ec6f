package calendar

import (
	"fmt"
	"time"
)

// Taipei is the Taiwan Standard Time location (UTC+8).
var Taipei = time.FixedZone("CST", 8*3600)

// TWSE session bounds in Taipei time.
const (
	OpenHour   = 9
	OpenMinute = 0

	// Intraday monitoring stops 5 minutes before the 13:30 close; the
	// closing auction window is not scannable.
	MonitorEndHour   = 13
	MonitorEndMinute = 25

	// Tail seeding is only worthwhile early in the session; entrants after
	// this cutoff run on a shorter effective history.
	SeedCutoffHour   = 10
	SeedCutoffMinute = 40
)

// InSession returns true if t falls within the monitored window
// [09:00, 13:25) on any day. Holiday/weekend gating is the caller's
// concern via IsTradingDay.
func InSession(t time.Time) bool {
	tw := t.In(Taipei)
	hm := tw.Hour()*60 + tw.Minute()
	return hm >= OpenHour*60+OpenMinute && hm < MonitorEndHour*60+MonitorEndMinute
}

// BeforeSeedCutoff returns true if t is at or before 10:40 Taipei time.
func BeforeSeedCutoff(t time.Time) bool {
	tw := t.In(Taipei)
	hm := tw.Hour()*60 + tw.Minute()
	return hm <= SeedCutoffHour*60+SeedCutoffMinute
}

// MinutesFromOpen returns whole minutes elapsed since 09:00 Taipei time.
// Negative before the open.
func MinutesFromOpen(t time.Time) int {
	tw := t.In(Taipei)
	return (tw.Hour()-OpenHour)*60 + tw.Minute() - OpenMinute
}

// IsWeekday returns true if t is Mon-Fri in Taipei time.
func IsWeekday(t time.Time) bool {
	wd := t.In(Taipei).Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// IsTradingDay returns true if t is a weekday and not a TWSE holiday.
func IsTradingDay(t time.Time) bool {
	tw := t.In(Taipei)
	return IsWeekday(tw) && !IsHoliday(tw)
}

// ScheduleBetween returns the ordered trading dates in [start, end], each as
// midnight Taipei time. Mirrors an exchange-calendar schedule lookup.
func ScheduleBetween(start, end time.Time) []time.Time {
	s := midnight(start)
	e := midnight(end)
	var days []time.Time
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		if IsTradingDay(d) {
			days = append(days, d)
		}
	}
	return days
}

// PreviousTradingDay resolves the trading day preceding today using a
// 14-day trailing schedule ending at today. Taking the second-to-last entry
// guards against today itself being a holiday with no trading data yet.
func PreviousTradingDay(today time.Time) (time.Time, error) {
	sched := ScheduleBetween(today.AddDate(0, 0, -14), today)
	if len(sched) < 2 {
		return time.Time{}, fmt.Errorf("calendar: fewer than 2 trading days in trailing window ending %s",
			today.In(Taipei).Format("2006-01-02"))
	}
	return sched[len(sched)-2], nil
}

// SameDate returns true if a and b fall on the same Taipei calendar date.
func SameDate(a, b time.Time) bool {
	return midnight(a).Equal(midnight(b))
}

func midnight(t time.Time) time.Time {
	tw := t.In(Taipei)
	return time.Date(tw.Year(), tw.Month(), tw.Day(), 0, 0, 0, 0, Taipei)
}
