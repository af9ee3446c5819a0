package utils

import (
	"time"

	"github.com/jinzhu/now"
)

// Date builds a calendar date at midnight UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// BeginningOfDay returns midnight of the day containing t.
func BeginningOfDay(t time.Time) time.Time {
	return now.With(t).BeginningOfDay()
}

// EndOfDay returns the last nanosecond of the day containing t.
func EndOfDay(t time.Time) time.Time {
	return now.With(t).EndOfDay()
}

// BeginningOfMonth returns the first day of the month containing t.
func BeginningOfMonth(t time.Time) time.Time {
	return now.With(DateOf(t)).BeginningOfMonth()
}

// EndOfMonth returns the last calendar day of the month containing t, at midnight.
func EndOfMonth(t time.Time) time.Time {
	return BeginningOfMonth(t).AddDate(0, 1, -1)
}

// AddMonths shifts t by n months, clamping the day to the end of the target
// month (Jan 31 + 1 month is Feb 28 or 29).
func AddMonths(t time.Time, n int) time.Time {
	target := BeginningOfMonth(t).AddDate(0, n, 0)
	last := EndOfMonth(target)
	if t.Day() > last.Day() {
		return last
	}
	return target.AddDate(0, 0, t.Day()-1)
}

// MaxDate returns the later of a and b.
func MaxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// MinDate returns the earlier of a and b.
func MinDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// SameDate reports whether a and b fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}
