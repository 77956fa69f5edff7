package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"family-calendar/internal/calendar"
	"family-calendar/internal/model"
)

const insertBatchSize = 200

// DateRange bounds a task query; nil ends are open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// TaskRepository handles CRUD for materialized tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) FindByID(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).First(&task, id).Error
	switch {
	case err == nil:
		return &task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("task %d: %w", id, model.ErrNotFound)
	default:
		return nil, persistErr("find task", err)
	}
}

// FindBySchedule lists the tasks linked to a schedule inside rng.
func (r *TaskRepository) FindBySchedule(ctx context.Context, scheduleID uint, rng DateRange) ([]model.Task, error) {
	q := applyRange(r.db.WithContext(ctx).Where("schedule_id = ?", scheduleID), rng)
	var tasks []model.Task
	if err := q.Order("date ASC, id ASC").Find(&tasks).Error; err != nil {
		return nil, persistErr("find schedule tasks", err)
	}
	return tasks, nil
}

// FindOne returns the task of a schedule on a given day.
func (r *TaskRepository) FindOne(ctx context.Context, scheduleID uint, day time.Time) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Where("schedule_id = ? AND date = ?", scheduleID, calendar.Day(day)).
		Order("id ASC").
		First(&task).Error
	switch {
	case err == nil:
		return &task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("task for schedule %d on %s: %w", scheduleID, day.Format(calendar.DayLayout), model.ErrNotFound)
	default:
		return nil, persistErr("find task", err)
	}
}

// List returns every task inside rng, managed or not.
func (r *TaskRepository) List(ctx context.Context, rng DateRange) ([]model.Task, error) {
	var tasks []model.Task
	if err := applyRange(r.db.WithContext(ctx), rng).Order("date ASC, id ASC").Find(&tasks).Error; err != nil {
		return nil, persistErr("list tasks", err)
	}
	return tasks, nil
}

// CreateBulk inserts all tasks; ids are written back into the slice.
func (r *TaskRepository) CreateBulk(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(tasks, insertBatchSize).Error; err != nil {
		return persistErr("insert tasks", err)
	}
	return nil
}

func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return persistErr("save task", err)
	}
	return nil
}

// DeleteFrom removes the schedule's tasks dated on or after threshold.
func (r *TaskRepository) DeleteFrom(ctx context.Context, scheduleID uint, threshold time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("schedule_id = ? AND date >= ?", scheduleID, calendar.Day(threshold)).
		Delete(&model.Task{})
	if res.Error != nil {
		return 0, persistErr("delete future tasks", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteIDs removes the listed tasks of a schedule. Rows of other schedules
// are never touched even if their id is listed.
func (r *TaskRepository) DeleteIDs(ctx context.Context, scheduleID uint, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("schedule_id = ? AND id IN ?", scheduleID, ids).
		Delete(&model.Task{})
	if res.Error != nil {
		return 0, persistErr("delete tasks", res.Error)
	}
	return res.RowsAffected, nil
}

func applyRange(q *gorm.DB, rng DateRange) *gorm.DB {
	if rng.From != nil {
		q = q.Where("date >= ?", calendar.Day(*rng.From))
	}
	if rng.To != nil {
		q = q.Where("date <= ?", calendar.Day(*rng.To))
	}
	return q
}
