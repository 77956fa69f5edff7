package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gorm.io/datatypes"
)

// Schedule is a weekday recurrence that materializes tasks on the calendar.
type Schedule struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"not null"`
	Description string
	// Weekdays holds a JSON list of ints, 0 = Monday ... 6 = Sunday.
	Weekdays  datatypes.JSON `gorm:"not null"`
	Active    bool           `gorm:"not null;index"`
	StartDate *datatypes.Date
	EndDate   *datatypes.Date
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WeekdayList decodes the stored weekday list.
func (s Schedule) WeekdayList() ([]int, error) {
	if len(s.Weekdays) == 0 {
		return nil, nil
	}
	var days []int
	if err := json.Unmarshal(s.Weekdays, &days); err != nil {
		return nil, fmt.Errorf("decode weekdays of schedule %d: %w", s.ID, err)
	}
	return NormalizeWeekdays(days), nil
}

// SetWeekdays stores days sorted and deduplicated.
func (s *Schedule) SetWeekdays(days []int) error {
	payload, err := json.Marshal(NormalizeWeekdays(days))
	if err != nil {
		return fmt.Errorf("encode weekdays: %w", err)
	}
	s.Weekdays = datatypes.JSON(payload)
	return nil
}

func (s Schedule) Start() *time.Time {
	return dateValue(s.StartDate)
}

func (s Schedule) End() *time.Time {
	return dateValue(s.EndDate)
}

func (s *Schedule) SetStart(t *time.Time) {
	s.StartDate = toDate(t)
}

func (s *Schedule) SetEnd(t *time.Time) {
	s.EndDate = toDate(t)
}

// NormalizeWeekdays returns a sorted copy of days without duplicates.
func NormalizeWeekdays(days []int) []int {
	if days == nil {
		return nil
	}
	seen := make(map[int]struct{}, len(days))
	out := make([]int, 0, len(days))
	for _, d := range days {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

func dateValue(d *datatypes.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := time.Time(*d)
	y, m, day := t.Date()
	v := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	return &v
}

func toDate(t *time.Time) *datatypes.Date {
	if t == nil {
		return nil
	}
	y, m, d := t.Date()
	v := datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	return &v
}
