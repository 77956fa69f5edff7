package service

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"family-calendar/internal/calendar"
	"family-calendar/internal/model"
)

func mustDay(t testing.TB, raw string) time.Time {
	t.Helper()
	d, err := calendar.ParseDay("date", raw)
	if err != nil {
		t.Fatalf("parse day: %v", err)
	}
	return d
}

func feedSchedule(t testing.TB, id uint, weekdays []int, start, end string) model.Schedule {
	t.Helper()
	s := model.Schedule{ID: id, Title: "Feed", Description: "cat", Active: true}
	if err := s.SetWeekdays(weekdays); err != nil {
		t.Fatalf("set weekdays: %v", err)
	}
	if start != "" {
		d := mustDay(t, start)
		s.SetStart(&d)
	}
	if end != "" {
		d := mustDay(t, end)
		s.SetEnd(&d)
	}
	return s
}

func storedTask(t testing.TB, id, scheduleID uint, raw string) model.Task {
	t.Helper()
	task := model.Task{ID: id, TaskType: "Feed", ScheduleID: &scheduleID}
	task.SetDay(mustDay(t, raw))
	return task
}

func insertDays(diff Diff) []string {
	out := make([]string, 0, len(diff.ToInsert))
	for _, task := range diff.ToInsert {
		out = append(out, task.Day().Format(calendar.DayLayout))
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestReconcileCreate(t *testing.T) {
	schedule := feedSchedule(t, 3, []int{0, 2, 4}, "2024-03-18", "2024-03-22")

	diff, err := Reconcile(schedule, nil, ModeCreate, mustDay(t, "2024-03-18"))
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	want := []string{"2024-03-18", "2024-03-20", "2024-03-22"}
	if got := insertDays(diff); !equalStrings(got, want) {
		t.Fatalf("inserts = %v, want %v", got, want)
	}
	for _, task := range diff.ToInsert {
		if task.ScheduleID == nil || *task.ScheduleID != 3 {
			t.Fatalf("task not linked to schedule: %+v", task)
		}
		if task.TaskType != "Feed" || task.Description != "cat" {
			t.Fatalf("task did not copy schedule text: %+v", task)
		}
		if task.Completed || task.Missed {
			t.Fatalf("new task must start open: %+v", task)
		}
	}
	if len(diff.ToDelete) != 0 {
		t.Fatalf("create must not delete, got %v", diff.ToDelete)
	}
}

func TestReconcileUpdateClearsFutureOnly(t *testing.T) {
	schedule := feedSchedule(t, 3, []int{2}, "2024-03-01", "2024-03-31")
	today := mustDay(t, "2024-03-15")
	existing := []model.Task{
		storedTask(t, 1, 3, "2024-03-13"),
		storedTask(t, 2, 3, "2024-03-15"),
		storedTask(t, 3, 3, "2024-03-20"),
		storedTask(t, 4, 9, "2024-03-22"),
		{ID: 5, TaskType: "manual", Date: storedTask(t, 0, 0, "2024-03-25").Date},
	}

	diff, err := Reconcile(schedule, existing, ModeUpdate, today)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(diff.ToDelete) != 2 || diff.ToDelete[0] != 2 || diff.ToDelete[1] != 3 {
		t.Fatalf("deletes = %v, want [2 3]", diff.ToDelete)
	}
	want := []string{"2024-03-20", "2024-03-27"}
	if got := insertDays(diff); !equalStrings(got, want) {
		t.Fatalf("inserts = %v, want %v", got, want)
	}
}

func TestReconcileUpdateDeactivated(t *testing.T) {
	schedule := feedSchedule(t, 3, []int{2}, "2024-03-01", "2024-03-31")
	schedule.Active = false
	existing := []model.Task{storedTask(t, 7, 3, "2024-03-20")}

	diff, err := Reconcile(schedule, existing, ModeUpdate, mustDay(t, "2024-03-15"))
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(diff.ToInsert) != 0 {
		t.Fatalf("inactive schedule must not insert, got %v", insertDays(diff))
	}
	if len(diff.ToDelete) != 1 || diff.ToDelete[0] != 7 {
		t.Fatalf("deletes = %v, want [7]", diff.ToDelete)
	}
}

func TestReconcileRegenerateFillsGaps(t *testing.T) {
	schedule := feedSchedule(t, 3, []int{0, 2, 4}, "2024-03-18", "2024-03-22")
	existing := []model.Task{storedTask(t, 1, 3, "2024-03-20")}

	diff, err := Reconcile(schedule, existing, ModeRegenerate, mustDay(t, "2024-03-18"))
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	want := []string{"2024-03-18", "2024-03-22"}
	if got := insertDays(diff); !equalStrings(got, want) {
		t.Fatalf("inserts = %v, want %v", got, want)
	}
	if len(diff.ToDelete) != 0 {
		t.Fatalf("regenerate must not delete, got %v", diff.ToDelete)
	}
}

func TestReconcileRegenerateSkipsInactive(t *testing.T) {
	schedule := feedSchedule(t, 3, []int{0, 2, 4}, "2024-03-18", "")
	schedule.Active = false

	diff, err := Reconcile(schedule, nil, ModeRegenerate, mustDay(t, "2024-03-18"))
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !diff.Empty() {
		t.Fatalf("expected empty diff, got %+v", diff)
	}
}

func TestReconcileRejectsBadRule(t *testing.T) {
	schedule := feedSchedule(t, 3, []int{0}, "2024-03-22", "2024-03-18")

	_, err := Reconcile(schedule, nil, ModeCreate, mustDay(t, "2024-03-18"))
	if !model.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestModeString(t *testing.T) {
	if ModeRegenerate.String() != "regenerate" || Mode(42).String() != "mode(42)" {
		t.Fatalf("unexpected mode names %q %q", ModeRegenerate.String(), Mode(42).String())
	}
}

// Applying a regenerate diff and regenerating again must add nothing, and no
// (schedule, date) pair may appear twice.
func TestProperty_RegenerateIsIdempotent(t *testing.T) {
	base := mustDay(t, "2024-01-01")

	rapid.Check(t, func(rt *rapid.T) {
		weekdays := rapid.SliceOfDistinct(rapid.IntRange(0, 6), rapid.ID[int]).Draw(rt, "weekdays")
		today := base.AddDate(0, 0, rapid.IntRange(0, 400).Draw(rt, "today"))
		start := today.AddDate(0, 0, rapid.IntRange(-30, 30).Draw(rt, "start"))

		schedule := model.Schedule{ID: 1, Title: "Feed", Active: true}
		if err := schedule.SetWeekdays(weekdays); err != nil {
			rt.Fatalf("set weekdays: %v", err)
		}
		schedule.SetStart(&start)
		if rapid.Bool().Draw(rt, "bounded") {
			end := start.AddDate(0, 0, rapid.IntRange(0, 120).Draw(rt, "span"))
			schedule.SetEnd(&end)
		}

		var existing []model.Task
		for i, d := range rapid.SliceOfN(rapid.IntRange(0, 70), 0, 10).Draw(rt, "seeded") {
			day := today.AddDate(0, 0, d)
			id := schedule.ID
			task := model.Task{ID: uint(i + 1), TaskType: "Feed", ScheduleID: &id}
			task.SetDay(day)
			seen := false
			for _, e := range existing {
				if e.Day().Equal(task.Day()) {
					seen = true
				}
			}
			if !seen {
				existing = append(existing, task)
			}
		}

		first, err := Reconcile(schedule, existing, ModeRegenerate, today)
		if err != nil {
			rt.Fatalf("first pass: %v", err)
		}
		all := append(existing, first.ToInsert...)

		days := make(map[time.Time]int)
		for _, task := range all {
			days[task.Day()]++
			if days[task.Day()] > 1 {
				rt.Fatalf("duplicate task on %s", task.Day().Format(calendar.DayLayout))
			}
		}

		second, err := Reconcile(schedule, all, ModeRegenerate, today)
		if err != nil {
			rt.Fatalf("second pass: %v", err)
		}
		if len(second.ToInsert) != 0 {
			rt.Fatalf("second pass inserted %d tasks", len(second.ToInsert))
		}
	})
}
