package service

import (
	"context"
	"fmt"
	"time"

	"family-calendar/internal/calendar"
	"family-calendar/internal/model"
	"family-calendar/internal/repository"
)

// Mode selects how a schedule is reconciled against its stored tasks.
type Mode int

const (
	// ModeCreate materializes a brand new schedule.
	ModeCreate Mode = iota
	// ModeUpdate drops every task from today on and rebuilds the window.
	ModeUpdate
	// ModeRegenerate only fills days that have no task yet.
	ModeRegenerate
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeUpdate:
		return "update"
	case ModeRegenerate:
		return "regenerate"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Diff is the change set computed for one schedule.
type Diff struct {
	ScheduleID uint
	ToInsert   []model.Task
	ToDelete   []uint
}

func (d Diff) Empty() bool {
	return len(d.ToInsert) == 0 && len(d.ToDelete) == 0
}

// Reconcile computes the rows to add and remove so stored tasks match the
// schedule's rule on today. It performs no I/O.
func Reconcile(schedule model.Schedule, existing []model.Task, mode Mode, today time.Time) (Diff, error) {
	today = calendar.Day(today)
	diff := Diff{ScheduleID: schedule.ID}

	if mode == ModeUpdate {
		for _, task := range existing {
			if task.ScheduleID == nil || *task.ScheduleID != schedule.ID {
				continue
			}
			if !task.Day().Before(today) {
				diff.ToDelete = append(diff.ToDelete, task.ID)
			}
		}
	}

	if !schedule.Active {
		return diff, nil
	}

	rule, err := calendar.RuleFor(schedule, today)
	if err != nil {
		return Diff{}, err
	}

	var taken map[time.Time]struct{}
	if mode == ModeRegenerate {
		taken = make(map[time.Time]struct{}, len(existing))
		for _, task := range existing {
			if task.ScheduleID != nil && *task.ScheduleID == schedule.ID {
				taken[task.Day()] = struct{}{}
			}
		}
	}

	for _, day := range calendar.Expand(rule, today) {
		if _, ok := taken[day]; ok {
			continue
		}
		diff.ToInsert = append(diff.ToInsert, materialize(schedule, day))
	}
	return diff, nil
}

// materialize copies the schedule's current title and description onto a
// new task for day.
func materialize(schedule model.Schedule, day time.Time) model.Task {
	id := schedule.ID
	task := model.Task{
		TaskType:    schedule.Title,
		Description: schedule.Description,
		ScheduleID:  &id,
	}
	task.SetDay(day)
	return task
}

// Apply writes diff through tx. Callers run it inside a transaction so the
// deletes and inserts land together.
func Apply(ctx context.Context, tx repository.Persistence, diff Diff) error {
	if len(diff.ToDelete) > 0 {
		if _, err := tx.DeleteTasks(ctx, diff.ScheduleID, diff.ToDelete); err != nil {
			return err
		}
	}
	if len(diff.ToInsert) > 0 {
		if err := tx.InsertTasksBulk(ctx, diff.ToInsert); err != nil {
			return err
		}
	}
	return nil
}
