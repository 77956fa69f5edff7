package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"family-calendar/internal/model"
)

// ScheduleRepository handles CRUD for schedules.
type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Find lists schedules ordered by id. A nil active matches all of them.
func (r *ScheduleRepository) Find(ctx context.Context, active *bool) ([]model.Schedule, error) {
	var schedules []model.Schedule
	q := r.db.WithContext(ctx).Order("id ASC")
	if active != nil {
		q = q.Where("active = ?", *active)
	}
	if err := q.Find(&schedules).Error; err != nil {
		return nil, persistErr("find schedules", err)
	}
	return schedules, nil
}

func (r *ScheduleRepository) FindByID(ctx context.Context, id uint) (*model.Schedule, error) {
	var schedule model.Schedule
	err := r.db.WithContext(ctx).First(&schedule, id).Error
	switch {
	case err == nil:
		return &schedule, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("schedule %d: %w", id, model.ErrNotFound)
	default:
		return nil, persistErr("find schedule", err)
	}
}

func (r *ScheduleRepository) Create(ctx context.Context, schedule *model.Schedule) error {
	if err := r.db.WithContext(ctx).Create(schedule).Error; err != nil {
		return persistErr("create schedule", err)
	}
	return nil
}

func (r *ScheduleRepository) Update(ctx context.Context, schedule *model.Schedule) error {
	if err := r.db.WithContext(ctx).Save(schedule).Error; err != nil {
		return persistErr("update schedule", err)
	}
	return nil
}

func (r *ScheduleRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Schedule{}, id)
	if res.Error != nil {
		return persistErr("delete schedule", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("schedule %d: %w", id, model.ErrNotFound)
	}
	return nil
}
