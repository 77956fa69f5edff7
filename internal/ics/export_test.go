package ics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"family-calendar/internal/model"
)

func sampleTasks() []model.Task {
	scheduleID := uint(3)
	feed := model.Task{ID: 1, TaskType: "Feed", Description: "cat food", ScheduleID: &scheduleID, Completed: true}
	feed.SetDay(time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC))
	vet := model.Task{ID: 2, TaskType: "Vet", Missed: true}
	vet.SetDay(time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC))
	return []model.Task{feed, vet}
}

func TestWriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := Write(&buf, "Family", sampleTasks(), now); err != nil {
		t.Fatalf("write: %v", err)
	}

	body := buf.String()
	for _, want := range []string{"BEGIN:VCALENDAR", "X-WR-CALNAME:Family", "DTSTART;VALUE=DATE:20240318", "DTEND;VALUE=DATE:20240319", "STATUS:CANCELLED"} {
		if !strings.Contains(body, want) {
			t.Fatalf("feed missing %q:\n%s", want, body)
		}
	}

	cal, err := ical.ParseCalendar(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if got := events[0].GetProperty(ical.ComponentPropertySummary).Value; got != "✓ Feed" {
		t.Fatalf("summary = %q", got)
	}
	if got := events[1].GetProperty(ical.ComponentPropertyUniqueId).Value; got != TaskUID(sampleTasks()[1]) {
		t.Fatalf("uid = %q", got)
	}
}

func TestTaskUIDStable(t *testing.T) {
	a := model.Task{ID: 9}
	b := model.Task{ID: 9, TaskType: "renamed"}
	c := model.Task{ID: 10}
	if TaskUID(a) != TaskUID(b) {
		t.Fatalf("uid must depend on the id only")
	}
	if TaskUID(a) == TaskUID(c) {
		t.Fatalf("different tasks share a uid")
	}
}
