package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"family-calendar/internal/calendar"
	appLog "family-calendar/internal/log"
	"family-calendar/internal/model"
	"family-calendar/internal/repository"
)

// DateInput distinguishes an absent date from an explicit null.
type DateInput struct {
	Set  bool
	Date *time.Time
}

// ScheduleInput carries the fields of a create or update request. Nil
// pointers and a nil Weekdays slice mean "not provided".
type ScheduleInput struct {
	Title       *string
	Description *string
	Weekdays    []int
	Active      *bool
	StartDate   DateInput
	EndDate     DateInput
}

// RegenerateReport summarizes one batch regeneration pass.
type RegenerateReport struct {
	Schedules int
	Created   int
	Skipped   int
	Failed    map[uint]error
}

// FailedIDs returns the ids in Failed in ascending order.
func (r RegenerateReport) FailedIDs() []uint {
	ids := make([]uint, 0, len(r.Failed))
	for id := range r.Failed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ScheduleService owns the schedule lifecycle and keeps materialized tasks
// in step with every change.
type ScheduleService struct {
	store repository.Persistence
	now   func() time.Time
}

func NewScheduleService(store repository.Persistence, now func() time.Time) *ScheduleService {
	if now == nil {
		now = time.Now
	}
	return &ScheduleService{store: store, now: now}
}

func (s *ScheduleService) today() time.Time {
	return calendar.Day(s.now())
}

func (s *ScheduleService) List(ctx context.Context) ([]model.Schedule, error) {
	return s.store.FindSchedules(ctx, nil)
}

func (s *ScheduleService) Get(ctx context.Context, id uint) (*model.Schedule, error) {
	return s.store.FindSchedule(ctx, id)
}

// Create validates input, stores the schedule and materializes its tasks in
// one transaction.
func (s *ScheduleService) Create(ctx context.Context, input ScheduleInput) (*model.Schedule, error) {
	today := s.today()

	if input.Title == nil || strings.TrimSpace(*input.Title) == "" {
		return nil, model.Invalid("title", "title is required")
	}
	if len(input.Weekdays) == 0 {
		return nil, model.Invalid("weekdays", "at least one weekday is required")
	}
	if !input.StartDate.Set || input.StartDate.Date == nil {
		return nil, model.Invalid("start_date", "start date is required")
	}

	schedule := model.Schedule{Active: true}
	if err := applyInput(&schedule, input); err != nil {
		return nil, err
	}
	if _, err := calendar.RuleFor(schedule, today); err != nil {
		return nil, err
	}

	var created int
	err := s.store.Transaction(ctx, func(tx repository.Persistence) error {
		if err := tx.InsertSchedule(ctx, &schedule); err != nil {
			return err
		}
		diff, err := Reconcile(schedule, nil, ModeCreate, today)
		if err != nil {
			return err
		}
		created = len(diff.ToInsert)
		return Apply(ctx, tx, diff)
	})
	if err != nil {
		return nil, err
	}

	appLog.Info("schedule created", "id", schedule.ID, "title", schedule.Title, "tasks", created)
	return &schedule, nil
}

// Update applies the provided fields, drops the schedule's tasks from today
// on and materializes the window again.
func (s *ScheduleService) Update(ctx context.Context, id uint, input ScheduleInput) (*model.Schedule, error) {
	today := s.today()

	var updated model.Schedule
	var removed, created int
	err := s.store.Transaction(ctx, func(tx repository.Persistence) error {
		current, err := tx.FindSchedule(ctx, id)
		if err != nil {
			return err
		}
		schedule := *current
		if err := applyInput(&schedule, input); err != nil {
			return err
		}
		if err := validateSchedule(schedule, today); err != nil {
			return err
		}

		if err := tx.UpdateSchedule(ctx, &schedule); err != nil {
			return err
		}
		existing, err := tx.FindTasks(ctx, schedule.ID, repository.DateRange{From: &today})
		if err != nil {
			return err
		}
		diff, err := Reconcile(schedule, existing, ModeUpdate, today)
		if err != nil {
			return err
		}
		if err := Apply(ctx, tx, diff); err != nil {
			return err
		}
		updated = schedule
		removed, created = len(diff.ToDelete), len(diff.ToInsert)
		return nil
	})
	if err != nil {
		return nil, err
	}

	appLog.Info("schedule updated", "id", updated.ID, "removed", removed, "created", created, "active", updated.Active)
	return &updated, nil
}

// Delete removes the schedule and its tasks from today on. Earlier tasks are
// kept as history.
func (s *ScheduleService) Delete(ctx context.Context, id uint) error {
	today := s.today()

	var removed int64
	err := s.store.Transaction(ctx, func(tx repository.Persistence) error {
		if _, err := tx.FindSchedule(ctx, id); err != nil {
			return err
		}
		n, err := tx.DeleteTasksFrom(ctx, id, today)
		if err != nil {
			return err
		}
		removed = n
		return tx.DeleteSchedule(ctx, id)
	})
	if err != nil {
		return err
	}

	appLog.Info("schedule deleted", "id", id, "removed", removed)
	return nil
}

// RegenerateFutureTasks extends every active schedule up to its window on
// today without touching tasks that already exist. Each schedule is read
// again inside its own transaction, so one deleted or deactivated since the
// listing is skipped. A failing schedule is logged and skipped.
func (s *ScheduleService) RegenerateFutureTasks(ctx context.Context, today time.Time) (RegenerateReport, error) {
	today = calendar.Day(today)
	report := RegenerateReport{Failed: make(map[uint]error)}

	active := true
	schedules, err := s.store.FindSchedules(ctx, &active)
	if err != nil {
		return report, err
	}

	for _, schedule := range schedules {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Schedules++

		var created int
		var skipped bool
		err := s.store.Transaction(ctx, func(tx repository.Persistence) error {
			fresh, err := tx.FindSchedule(ctx, schedule.ID)
			if errors.Is(err, model.ErrNotFound) {
				skipped = true
				return nil
			}
			if err != nil {
				return err
			}
			if !fresh.Active {
				skipped = true
				return nil
			}
			existing, err := tx.FindTasks(ctx, fresh.ID, repository.DateRange{From: &today})
			if err != nil {
				return err
			}
			diff, err := Reconcile(*fresh, existing, ModeRegenerate, today)
			if err != nil {
				return err
			}
			created = len(diff.ToInsert)
			return Apply(ctx, tx, diff)
		})
		if err != nil {
			report.Failed[schedule.ID] = err
			appLog.Error("regenerate schedule failed", err, "schedule_id", schedule.ID, "title", schedule.Title)
			continue
		}
		if skipped {
			report.Skipped++
			appLog.Debug("regenerate skipped schedule", "schedule_id", schedule.ID)
			continue
		}
		report.Created += created
	}

	appLog.Info("regenerate completed",
		"today", today.Format(calendar.DayLayout),
		"schedules", report.Schedules,
		"created", report.Created,
		"skipped", report.Skipped,
		"failed", len(report.Failed),
	)
	return report, nil
}

func applyInput(schedule *model.Schedule, input ScheduleInput) error {
	if input.Title != nil {
		schedule.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		schedule.Description = strings.TrimSpace(*input.Description)
	}
	if input.Active != nil {
		schedule.Active = *input.Active
	}
	if input.Weekdays != nil {
		if err := schedule.SetWeekdays(input.Weekdays); err != nil {
			return err
		}
	}
	if input.StartDate.Set {
		schedule.SetStart(input.StartDate.Date)
	}
	if input.EndDate.Set {
		schedule.SetEnd(input.EndDate.Date)
	}
	return nil
}

func validateSchedule(schedule model.Schedule, today time.Time) error {
	if schedule.Title == "" {
		return model.Invalid("title", "title is required")
	}
	days, err := schedule.WeekdayList()
	if err != nil {
		return err
	}
	if len(days) == 0 {
		return model.Invalid("weekdays", "at least one weekday is required")
	}
	if schedule.Start() == nil {
		return model.Invalid("start_date", "start date is required")
	}
	_, err = calendar.RuleFor(schedule, today)
	return err
}
