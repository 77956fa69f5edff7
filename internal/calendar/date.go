// Package calendar holds the weekday recurrence rule and its expansion into
// concrete days.
package calendar

import (
	"strings"
	"time"

	"family-calendar/internal/model"
)

const (
	// DayLayout is the wire format for calendar days.
	DayLayout = "2006-01-02"

	// DefaultHorizonDays bounds expansion when a rule has no end date.
	DefaultHorizonDays = 60
	// CeilingYears caps any end date relative to today.
	CeilingYears = 10
	// RescheduleWindowDays is how far a task may be moved from its date.
	RescheduleWindowDays = 7
)

// Day truncates t to its calendar day, expressed as midnight UTC so that
// stored values compare consistently.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current local calendar day.
func Today() time.Time {
	return Day(time.Now())
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(field, raw string) (time.Time, error) {
	t, err := time.Parse(DayLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, model.Invalid(field, "invalid date %q, expected YYYY-MM-DD", raw)
	}
	return t, nil
}

// DaysBetween returns the signed number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// Weekday maps t to 0 = Monday ... 6 = Sunday.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// Ceiling is the latest end date allowed when evaluated on today.
func Ceiling(today time.Time) time.Time {
	return Day(today).AddDate(CeilingYears, 0, 0)
}

func Horizon(today time.Time) time.Time {
	return Day(today).AddDate(0, 0, DefaultHorizonDays)
}
