package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"family-calendar/internal/calendar"
	"family-calendar/internal/model"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "calendar-test.db"))
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewStore(db)
}

func mustDay(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := calendar.ParseDay("date", raw)
	if err != nil {
		t.Fatalf("parse day: %v", err)
	}
	return d
}

func newSchedule(t *testing.T, store *Store, title string, active bool) model.Schedule {
	t.Helper()
	s := model.Schedule{Title: title, Active: active}
	if err := s.SetWeekdays([]int{0, 2}); err != nil {
		t.Fatalf("set weekdays: %v", err)
	}
	if err := store.InsertSchedule(context.Background(), &s); err != nil {
		t.Fatalf("insert schedule: %v", err)
	}
	return s
}

func taskOn(t *testing.T, scheduleID *uint, raw string) model.Task {
	t.Helper()
	task := model.Task{TaskType: "Feed", ScheduleID: scheduleID}
	task.SetDay(mustDay(t, raw))
	return task
}

func TestScheduleCRUD(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	active := newSchedule(t, store, "Feed", true)
	newSchedule(t, store, "Clean", false)
	if active.ID == 0 {
		t.Fatalf("expected id to be assigned")
	}

	yes := true
	onlyActive, err := store.FindSchedules(ctx, &yes)
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	if len(onlyActive) != 1 || onlyActive[0].Title != "Feed" {
		t.Fatalf("unexpected active schedules %+v", onlyActive)
	}

	all, err := store.FindSchedules(ctx, nil)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 schedules, got %d", len(all))
	}

	end := mustDay(t, "2024-03-22")
	active.SetEnd(&end)
	active.Active = false
	if err := store.UpdateSchedule(ctx, &active); err != nil {
		t.Fatalf("update: %v", err)
	}
	reloaded, err := store.FindSchedule(ctx, active.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Active || reloaded.End() == nil || reloaded.End().Format(calendar.DayLayout) != "2024-03-22" {
		t.Fatalf("update not persisted: %+v", reloaded)
	}
	days, err := reloaded.WeekdayList()
	if err != nil || len(days) != 2 {
		t.Fatalf("weekdays not persisted: %v %v", days, err)
	}

	if err := store.DeleteSchedule(ctx, active.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.FindSchedule(ctx, active.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.DeleteSchedule(ctx, active.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestTaskQueriesByScheduleAndDate(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	s := newSchedule(t, store, "Feed", true)
	other := newSchedule(t, store, "Clean", true)

	tasks := []model.Task{
		taskOn(t, &s.ID, "2024-03-16"),
		taskOn(t, &s.ID, "2024-03-18"),
		taskOn(t, &s.ID, "2024-03-20"),
		taskOn(t, &other.ID, "2024-03-18"),
		taskOn(t, nil, "2024-03-18"),
	}
	if err := store.InsertTasksBulk(ctx, tasks); err != nil {
		t.Fatalf("bulk insert: %v", err)
	}
	for _, task := range tasks {
		if task.ID == 0 {
			t.Fatalf("expected ids written back")
		}
	}

	from := mustDay(t, "2024-03-18")
	future, err := store.FindTasks(ctx, s.ID, DateRange{From: &from})
	if err != nil {
		t.Fatalf("find tasks: %v", err)
	}
	if len(future) != 2 || future[0].Day().Format(calendar.DayLayout) != "2024-03-18" {
		t.Fatalf("unexpected future tasks %+v", future)
	}

	found, err := store.FindTask(ctx, s.ID, mustDay(t, "2024-03-20"))
	if err != nil {
		t.Fatalf("find task: %v", err)
	}
	if found.ID != tasks[2].ID {
		t.Fatalf("expected task %d, got %d", tasks[2].ID, found.ID)
	}
	if _, err := store.FindTask(ctx, s.ID, mustDay(t, "2024-03-19")); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	onDay, err := store.ListTasks(ctx, DateRange{From: &from, To: &from})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(onDay) != 3 {
		t.Fatalf("expected 3 tasks on 2024-03-18, got %d", len(onDay))
	}
}

func TestDeleteFromKeepsPastAndOtherSchedules(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	s := newSchedule(t, store, "Feed", true)
	other := newSchedule(t, store, "Clean", true)

	tasks := []model.Task{
		taskOn(t, &s.ID, "2024-03-17"),
		taskOn(t, &s.ID, "2024-03-18"),
		taskOn(t, &s.ID, "2024-04-01"),
		taskOn(t, &other.ID, "2024-03-20"),
		taskOn(t, nil, "2024-03-20"),
	}
	if err := store.InsertTasksBulk(ctx, tasks); err != nil {
		t.Fatalf("bulk insert: %v", err)
	}

	n, err := store.DeleteTasksFrom(ctx, s.ID, mustDay(t, "2024-03-18"))
	if err != nil {
		t.Fatalf("delete from: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted, got %d", n)
	}

	all, err := store.ListTasks(ctx, DateRange{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 remaining tasks, got %d", len(all))
	}

	n, err = store.DeleteTasks(ctx, s.ID, []uint{tasks[3].ID, tasks[4].ID})
	if err != nil {
		t.Fatalf("delete ids: %v", err)
	}
	if n != 0 {
		t.Fatalf("ids of other owners must not be deleted, got %d", n)
	}
}

func TestTransactionRollsBack(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Transaction(ctx, func(tx Persistence) error {
		s := model.Schedule{Title: "Feed", Active: true}
		if err := s.SetWeekdays([]int{1}); err != nil {
			return err
		}
		if err := tx.InsertSchedule(ctx, &s); err != nil {
			return err
		}
		if err := tx.InsertTasksBulk(ctx, []model.Task{taskOn(t, &s.ID, "2024-03-19")}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	schedules, _ := store.FindSchedules(ctx, nil)
	tasks, _ := store.ListTasks(ctx, DateRange{})
	if len(schedules) != 0 || len(tasks) != 0 {
		t.Fatalf("expected rollback, got %d schedules %d tasks", len(schedules), len(tasks))
	}
}
