package service

import (
	"context"
	"time"

	"family-calendar/internal/calendar"
	appLog "family-calendar/internal/log"
	"family-calendar/internal/model"
	"family-calendar/internal/repository"
)

// StatusKind names the flag a toggle flips.
type StatusKind string

const (
	StatusCompleted StatusKind = "completed"
	StatusMissed    StatusKind = "missed"
)

// ParseStatusKind validates a raw toggle kind.
func ParseStatusKind(raw string) (StatusKind, error) {
	switch StatusKind(raw) {
	case StatusCompleted, StatusMissed:
		return StatusKind(raw), nil
	default:
		return "", model.Invalid("status", "unknown status %q, expected completed or missed", raw)
	}
}

// TaskService holds the small state transitions on single tasks.
type TaskService struct {
	store repository.Persistence
}

func NewTaskService(store repository.Persistence) *TaskService {
	return &TaskService{store: store}
}

func (s *TaskService) Get(ctx context.Context, id uint) (*model.Task, error) {
	return s.store.FindTaskByID(ctx, id)
}

// ListTasks returns tasks between from and to inclusive, ordered by date.
// Either bound may be nil.
func (s *TaskService) ListTasks(ctx context.Context, from, to *time.Time) ([]model.Task, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, model.Invalid("end_date", "end date %s is before start date %s",
			to.Format(calendar.DayLayout), from.Format(calendar.DayLayout))
	}
	return s.store.ListTasks(ctx, repository.DateRange{From: from, To: to})
}

// FindOccurrence returns the task a schedule materialized on day.
func (s *TaskService) FindOccurrence(ctx context.Context, scheduleID uint, day time.Time) (*model.Task, error) {
	if _, err := s.store.FindSchedule(ctx, scheduleID); err != nil {
		return nil, err
	}
	return s.store.FindTask(ctx, scheduleID, calendar.Day(day))
}

// ToggleStatus flips the completed or missed flag of a task.
func (s *TaskService) ToggleStatus(ctx context.Context, id uint, kind StatusKind) (*model.Task, error) {
	if _, err := ParseStatusKind(string(kind)); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(task *model.Task) error {
		if kind == StatusCompleted {
			task.ToggleCompleted()
		} else {
			task.ToggleMissed()
		}
		return nil
	})
}

// MarkMissed sets missed and clears completed regardless of the current state.
func (s *TaskService) MarkMissed(ctx context.Context, id uint) (*model.Task, error) {
	return s.mutate(ctx, id, func(task *model.Task) error {
		task.MarkMissed()
		return nil
	})
}

// Reschedule moves a task to newDate. The move may not exceed the
// reschedule window in either direction.
func (s *TaskService) Reschedule(ctx context.Context, id uint, newDate time.Time) (*model.Task, error) {
	newDate = calendar.Day(newDate)
	return s.mutate(ctx, id, func(task *model.Task) error {
		shift := calendar.DaysBetween(task.Day(), newDate)
		if shift > calendar.RescheduleWindowDays || shift < -calendar.RescheduleWindowDays {
			return model.Invalid("new_date", "cannot move task %d by %d days, limit is %d",
				task.ID, shift, calendar.RescheduleWindowDays)
		}
		task.SetDay(newDate)
		return nil
	})
}

func (s *TaskService) mutate(ctx context.Context, id uint, change func(task *model.Task) error) (*model.Task, error) {
	var result model.Task
	err := s.store.Transaction(ctx, func(tx repository.Persistence) error {
		task, err := tx.FindTaskByID(ctx, id)
		if err != nil {
			return err
		}
		if err := change(task); err != nil {
			return err
		}
		if err := tx.SaveTask(ctx, task); err != nil {
			return err
		}
		result = *task
		return nil
	})
	if err != nil {
		return nil, err
	}

	appLog.Debug("task updated",
		"id", result.ID,
		"date", result.Day().Format(calendar.DayLayout),
		"completed", result.Completed,
		"missed", result.Missed,
	)
	return &result, nil
}
