package calendar

import (
	"time"

	"github.com/teambition/rrule-go"
)

var byWeekday = [7]rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

// Window returns the inclusive range a rule expands over on today.
// ok is false when the range is empty.
func Window(r Rule, today time.Time) (lower, upper time.Time, ok bool) {
	today = Day(today)

	lower = today
	if r.StartDate != nil && r.StartDate.After(lower) {
		lower = *r.StartDate
	}

	if r.EndDate != nil {
		upper = *r.EndDate
		if ceiling := Ceiling(today); upper.After(ceiling) {
			upper = ceiling
		}
	} else {
		upper = Horizon(today)
	}

	return lower, upper, !lower.After(upper)
}

// Expand lists every day in the rule's window that falls on one of its
// weekdays, in ascending order.
func Expand(r Rule, today time.Time) []time.Time {
	if len(r.Weekdays) == 0 {
		return nil
	}
	lower, upper, ok := Window(r, today)
	if !ok {
		return nil
	}

	days := make([]rrule.Weekday, 0, len(r.Weekdays))
	for _, d := range r.Weekdays {
		days = append(days, byWeekday[d])
	}

	rr, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   lower,
		Until:     upper,
		Byweekday: days,
	})
	if err != nil {
		return expandDaily(r, lower, upper)
	}

	out := rr.All()
	for i := range out {
		out[i] = Day(out[i])
	}
	return out
}

// expandDaily walks the window day by day.
func expandDaily(r Rule, lower, upper time.Time) []time.Time {
	var out []time.Time
	for d := lower; !d.After(upper); d = d.AddDate(0, 0, 1) {
		if r.Matches(d) {
			out = append(out, d)
		}
	}
	return out
}
