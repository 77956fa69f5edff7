// Package seed loads schedules from a YAML file for bulk import.
package seed

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"family-calendar/internal/calendar"
	appLog "family-calendar/internal/log"
	"family-calendar/internal/model"
	"family-calendar/internal/service"
)

// File is the document layout:
//
//	schedules:
//	  - title: Feed the cat
//	    weekdays: [0, 2, 4]
//	    start_date: 2024-03-18
type File struct {
	Schedules []Entry `yaml:"schedules"`
}

type Entry struct {
	Title       string  `yaml:"title"`
	Description string  `yaml:"description"`
	Weekdays    []int   `yaml:"weekdays"`
	Active      *bool   `yaml:"active"`
	StartDate   *string `yaml:"start_date"`
	EndDate     *string `yaml:"end_date"`
}

// Creator is the part of the schedule service an import needs.
type Creator interface {
	Create(ctx context.Context, input service.ScheduleInput) (*model.Schedule, error)
}

// Load reads and decodes path.
func Load(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return File{}, fmt.Errorf("decode seed file: %w", err)
	}
	return f, nil
}

// Input converts an entry into a create request.
func (e Entry) Input() (service.ScheduleInput, error) {
	title, desc := e.Title, e.Description
	input := service.ScheduleInput{
		Title:       &title,
		Description: &desc,
		Weekdays:    e.Weekdays,
		Active:      e.Active,
	}
	var err error
	if input.StartDate, err = dateInput("start_date", e.StartDate); err != nil {
		return service.ScheduleInput{}, err
	}
	if input.EndDate, err = dateInput("end_date", e.EndDate); err != nil {
		return service.ScheduleInput{}, err
	}
	return input, nil
}

// Import creates every schedule in order and stops at the first entry that
// fails. It returns how many schedules were created.
func Import(ctx context.Context, creator Creator, f File) (int, error) {
	for i, entry := range f.Schedules {
		input, err := entry.Input()
		if err != nil {
			return i, fmt.Errorf("schedule #%d (%s): %w", i, entry.Title, err)
		}
		schedule, err := creator.Create(ctx, input)
		if err != nil {
			return i, fmt.Errorf("schedule #%d (%s): %w", i, entry.Title, err)
		}
		appLog.Debug("seed schedule imported", "index", i, "id", schedule.ID)
	}
	return len(f.Schedules), nil
}

func dateInput(field string, raw *string) (service.DateInput, error) {
	if raw == nil {
		return service.DateInput{}, nil
	}
	d, err := calendar.ParseDay(field, *raw)
	if err != nil {
		return service.DateInput{}, err
	}
	return service.DateInput{Set: true, Date: &d}, nil
}
