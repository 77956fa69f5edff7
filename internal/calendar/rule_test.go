package calendar

import (
	"reflect"
	"testing"
	"time"

	"family-calendar/internal/model"
)

func day(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := ParseDay("date", raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return d
}

func TestNewRuleDeduplicatesWeekdays(t *testing.T) {
	rule, err := NewRule([]int{4, 2, 4, 0}, nil, nil, day(t, "2024-03-18"))
	if err != nil {
		t.Fatalf("new rule: %v", err)
	}
	if !reflect.DeepEqual(rule.Weekdays, []int{0, 2, 4}) {
		t.Fatalf("unexpected weekdays %v", rule.Weekdays)
	}
}

func TestNewRuleRejectsOutOfRangeWeekday(t *testing.T) {
	for _, wd := range []int{-1, 7, 42} {
		_, err := NewRule([]int{1, wd}, nil, nil, day(t, "2024-03-18"))
		if !model.IsValidation(err) {
			t.Fatalf("weekday %d: expected validation error, got %v", wd, err)
		}
	}
}

func TestNewRuleRejectsInvertedRange(t *testing.T) {
	start := day(t, "2024-03-22")
	end := day(t, "2024-03-18")
	_, err := NewRule([]int{0}, &start, &end, day(t, "2024-03-01"))
	if !model.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewRuleEnforcesCeiling(t *testing.T) {
	today := day(t, "2024-03-18")

	tooFar := today.AddDate(11, 0, 0)
	if _, err := NewRule([]int{0}, &today, &tooFar, today); !model.IsValidation(err) {
		t.Fatalf("expected validation error for +11y, got %v", err)
	}

	ok := today.AddDate(9, 0, 0)
	if _, err := NewRule([]int{0}, &today, &ok, today); err != nil {
		t.Fatalf("expected +9y to pass, got %v", err)
	}

	edge := today.AddDate(10, 0, 0)
	if _, err := NewRule([]int{0}, nil, &edge, today); err != nil {
		t.Fatalf("expected exactly +10y to pass, got %v", err)
	}
}

func TestWeekdayStartsOnMonday(t *testing.T) {
	if got := Weekday(day(t, "2024-03-18")); got != 0 {
		t.Fatalf("expected monday=0, got %d", got)
	}
	if got := Weekday(day(t, "2024-03-24")); got != 6 {
		t.Fatalf("expected sunday=6, got %d", got)
	}
}

func TestDaysBetween(t *testing.T) {
	if got := DaysBetween(day(t, "2024-01-10"), day(t, "2024-01-18")); got != 8 {
		t.Fatalf("expected 8, got %d", got)
	}
	if got := DaysBetween(day(t, "2024-01-10"), day(t, "2024-01-03")); got != -7 {
		t.Fatalf("expected -7, got %d", got)
	}
}

func TestParseDayRejectsGarbage(t *testing.T) {
	if _, err := ParseDay("new_date", "18/03/2024"); !model.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
