// Package ics renders materialized tasks as an iCalendar feed.
package ics

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"family-calendar/internal/model"
)

const productID = "-//family-calendar//tasks//EN"

// uidNamespace scopes task UIDs so the same task id always maps to the same
// event across exports.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("family-calendar/tasks"))

// TaskUID returns the stable event UID of a task.
func TaskUID(task model.Task) string {
	return uuid.NewSHA1(uidNamespace, []byte(fmt.Sprintf("task-%d", task.ID))).String() + "@family-calendar"
}

// Build turns tasks into an all-day VEVENT calendar. now stamps rows that
// have never been saved.
func Build(title string, tasks []model.Task, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if title != "" {
		cal.SetXWRCalName(title)
	}

	for _, task := range tasks {
		ev := cal.AddEvent(TaskUID(task))

		stamp := task.UpdatedAt
		if stamp.IsZero() {
			stamp = now
		}
		ev.SetDtStampTime(stamp.UTC())

		day := task.Day()
		ev.SetAllDayStartAt(day)
		ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
		ev.SetSummary(summary(task))
		if desc := strings.TrimSpace(task.Description); desc != "" {
			ev.SetDescription(desc)
		}
		ev.SetProperty(ical.ComponentPropertyStatus, status(task))
		if task.ScheduleID == nil {
			ev.AddProperty(ical.ComponentPropertyCategories, "manual")
		} else {
			ev.AddProperty(ical.ComponentPropertyCategories, fmt.Sprintf("schedule-%d", *task.ScheduleID))
		}
	}
	return cal
}

// Write serializes the feed for tasks to w.
func Write(w io.Writer, title string, tasks []model.Task, now time.Time) error {
	_, err := io.WriteString(w, Build(title, tasks, now).Serialize())
	return err
}

func summary(task model.Task) string {
	switch {
	case task.Completed:
		return "✓ " + task.TaskType
	case task.Missed:
		return "✗ " + task.TaskType
	default:
		return task.TaskType
	}
}

func status(task model.Task) string {
	if task.Missed {
		return "CANCELLED"
	}
	return "CONFIRMED"
}
