package calendar

import (
	"time"

	"family-calendar/internal/model"
)

// Rule is a validated weekday recurrence.
type Rule struct {
	// Weekdays is sorted and deduplicated, 0 = Monday.
	Weekdays  []int
	StartDate *time.Time
	EndDate   *time.Time
}

// NewRule validates raw recurrence input. Duplicate weekdays are folded;
// the ten year ceiling is checked against today and not stored.
func NewRule(weekdays []int, start, end *time.Time, today time.Time) (Rule, error) {
	for _, d := range weekdays {
		if d < 0 || d > 6 {
			return Rule{}, model.Invalid("weekdays", "weekday %d out of range 0-6", d)
		}
	}

	rule := Rule{Weekdays: model.NormalizeWeekdays(weekdays)}
	if start != nil {
		s := Day(*start)
		rule.StartDate = &s
	}
	if end != nil {
		e := Day(*end)
		rule.EndDate = &e
	}

	if rule.StartDate != nil && rule.EndDate != nil && rule.EndDate.Before(*rule.StartDate) {
		return Rule{}, model.Invalid("end_date", "end date %s is before start date %s",
			rule.EndDate.Format(DayLayout), rule.StartDate.Format(DayLayout))
	}
	if rule.EndDate != nil && rule.EndDate.After(Ceiling(today)) {
		return Rule{}, model.Invalid("end_date", "end date %s is more than %d years ahead",
			rule.EndDate.Format(DayLayout), CeilingYears)
	}
	return rule, nil
}

// RuleFor builds the rule stored on a schedule.
func RuleFor(s model.Schedule, today time.Time) (Rule, error) {
	days, err := s.WeekdayList()
	if err != nil {
		return Rule{}, err
	}
	return NewRule(days, s.Start(), s.End(), today)
}

// Matches reports whether day falls on one of the rule's weekdays.
func (r Rule) Matches(day time.Time) bool {
	wd := Weekday(day)
	for _, d := range r.Weekdays {
		if d == wd {
			return true
		}
	}
	return false
}
