package model

import (
	"time"

	"gorm.io/datatypes"
)

// Task is one materialized calendar entry. TaskType and Description are a
// copy of the owning schedule taken when the row was created.
type Task struct {
	ID          uint           `gorm:"primaryKey"`
	Date        datatypes.Date `gorm:"not null;index;index:idx_task_schedule_date,priority:2"`
	TaskType    string         `gorm:"not null"`
	Description string
	Completed   bool  `gorm:"default:false"`
	Missed      bool  `gorm:"default:false"`
	ScheduleID  *uint `gorm:"index:idx_task_schedule_date,priority:1"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Day returns the task date as a UTC midnight value.
func (t Task) Day() time.Time {
	return *dateValue(&t.Date)
}

func (t *Task) SetDay(day time.Time) {
	t.Date = *toDate(&day)
}

// ToggleCompleted flips Completed; a completed task is never missed.
func (t *Task) ToggleCompleted() {
	t.Completed = !t.Completed
	if t.Completed {
		t.Missed = false
	}
}

// ToggleMissed flips Missed; a missed task is never completed.
func (t *Task) ToggleMissed() {
	t.Missed = !t.Missed
	if t.Missed {
		t.Completed = false
	}
}

func (t *Task) MarkMissed() {
	t.Missed = true
	t.Completed = false
}
