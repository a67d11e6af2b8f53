package utils

import "time"

// Day and week windows are computed in server-local time. Every time-windowed
// query in the service goes through these helpers so the boundary logic cannot
// drift between handlers.

// DayStart returns local midnight of the calendar day containing t.
func DayStart(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayBounds returns the inclusive start and end of the calendar day
// containing t: [00:00:00.000, 23:59:59.999].
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := DayStart(t)
	end := start.Add(24*time.Hour - time.Millisecond)
	return start, end
}

// WeekBounds returns the Monday 00:00:00 start and Sunday 23:59:59.999 end of
// the week `offset` weeks away from the week containing t (0 = this week,
// -1 = last week).
func WeekBounds(t time.Time, offset int) (time.Time, time.Time) {
	t = t.In(time.Local)
	daysSinceMonday := int(t.Weekday()) - 1
	if t.Weekday() == time.Sunday {
		daysSinceMonday = 6
	}
	start := DayStart(t).AddDate(0, 0, -daysSinceMonday+offset*7)
	end := start.AddDate(0, 0, 7).Add(-time.Millisecond)
	return start, end
}

// MonthStart returns the first day of t's month at local midnight.
func MonthStart(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same local calendar day.
func SameDay(a, b time.Time) bool {
	a, b = a.In(time.Local), b.In(time.Local)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// ConsecutiveDays counts the current streak given the set of distinct days a
// user completed a check-in, ordered newest first. The streak is anchored at
// today, or at yesterday when today has no check-in yet.
func ConsecutiveDays(days []time.Time, now time.Time) int {
	if len(days) == 0 {
		return 0
	}
	anchor := DayStart(now)
	if !SameDay(days[0], anchor) {
		anchor = anchor.AddDate(0, 0, -1)
	}
	streak := 0
	for _, d := range days {
		if !SameDay(d, anchor) {
			break
		}
		streak++
		anchor = anchor.AddDate(0, 0, -1)
	}
	return streak
}
