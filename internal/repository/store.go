package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"family-calendar/internal/model"
)

// Persistence is the storage surface the calendar services depend on. All
// calls made inside Transaction commit or roll back together.
type Persistence interface {
	FindSchedules(ctx context.Context, active *bool) ([]model.Schedule, error)
	FindSchedule(ctx context.Context, id uint) (*model.Schedule, error)
	InsertSchedule(ctx context.Context, schedule *model.Schedule) error
	UpdateSchedule(ctx context.Context, schedule *model.Schedule) error
	DeleteSchedule(ctx context.Context, id uint) error

	FindTasks(ctx context.Context, scheduleID uint, rng DateRange) ([]model.Task, error)
	FindTask(ctx context.Context, scheduleID uint, day time.Time) (*model.Task, error)
	FindTaskByID(ctx context.Context, id uint) (*model.Task, error)
	ListTasks(ctx context.Context, rng DateRange) ([]model.Task, error)
	InsertTasksBulk(ctx context.Context, tasks []model.Task) error
	SaveTask(ctx context.Context, task *model.Task) error
	DeleteTasksFrom(ctx context.Context, scheduleID uint, threshold time.Time) (int64, error)
	DeleteTasks(ctx context.Context, scheduleID uint, ids []uint) (int64, error)

	Transaction(ctx context.Context, fn func(tx Persistence) error) error
}

// Store is the gorm backed Persistence.
type Store struct {
	db        *gorm.DB
	schedules *ScheduleRepository
	tasks     *TaskRepository
}

var _ Persistence = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:        db,
		schedules: NewScheduleRepository(db),
		tasks:     NewTaskRepository(db),
	}
}

func (s *Store) Transaction(ctx context.Context, fn func(tx Persistence) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func (s *Store) FindSchedules(ctx context.Context, active *bool) ([]model.Schedule, error) {
	return s.schedules.Find(ctx, active)
}

func (s *Store) FindSchedule(ctx context.Context, id uint) (*model.Schedule, error) {
	return s.schedules.FindByID(ctx, id)
}

func (s *Store) InsertSchedule(ctx context.Context, schedule *model.Schedule) error {
	return s.schedules.Create(ctx, schedule)
}

func (s *Store) UpdateSchedule(ctx context.Context, schedule *model.Schedule) error {
	return s.schedules.Update(ctx, schedule)
}

func (s *Store) DeleteSchedule(ctx context.Context, id uint) error {
	return s.schedules.Delete(ctx, id)
}

func (s *Store) FindTasks(ctx context.Context, scheduleID uint, rng DateRange) ([]model.Task, error) {
	return s.tasks.FindBySchedule(ctx, scheduleID, rng)
}

func (s *Store) FindTask(ctx context.Context, scheduleID uint, day time.Time) (*model.Task, error) {
	return s.tasks.FindOne(ctx, scheduleID, day)
}

func (s *Store) FindTaskByID(ctx context.Context, id uint) (*model.Task, error) {
	return s.tasks.FindByID(ctx, id)
}

func (s *Store) ListTasks(ctx context.Context, rng DateRange) ([]model.Task, error) {
	return s.tasks.List(ctx, rng)
}

func (s *Store) InsertTasksBulk(ctx context.Context, tasks []model.Task) error {
	return s.tasks.CreateBulk(ctx, tasks)
}

func (s *Store) SaveTask(ctx context.Context, task *model.Task) error {
	return s.tasks.Save(ctx, task)
}

func (s *Store) DeleteTasksFrom(ctx context.Context, scheduleID uint, threshold time.Time) (int64, error) {
	return s.tasks.DeleteFrom(ctx, scheduleID, threshold)
}

func (s *Store) DeleteTasks(ctx context.Context, scheduleID uint, ids []uint) (int64, error) {
	return s.tasks.DeleteIDs(ctx, scheduleID, ids)
}
