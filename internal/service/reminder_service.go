package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"family-calendar/internal/calendar"
	"family-calendar/internal/model"
	"family-calendar/internal/repository"
)

// Reminder is a task due on the day a reminder check runs.
type Reminder struct {
	TaskID uint
	Title  string
	Date   time.Time
}

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct {
	store repository.Persistence
}

func NewReminderService(store repository.Persistence) *ReminderService {
	return &ReminderService{store: store}
}

// Reminders lists every task dated today, whatever its status.
func (s *ReminderService) Reminders(ctx context.Context, today time.Time) ([]Reminder, error) {
	today = calendar.Day(today)
	tasks, err := s.store.ListTasks(ctx, repository.DateRange{From: &today, To: &today})
	if err != nil {
		return nil, err
	}

	reminders := make([]Reminder, 0, len(tasks))
	for _, task := range tasks {
		reminders = append(reminders, Reminder{TaskID: task.ID, Title: task.TaskType, Date: task.Day()})
	}
	return reminders, nil
}

// Agenda returns the tasks from today through today+days-1.
func (s *ReminderService) Agenda(ctx context.Context, today time.Time, days int) ([]model.Task, error) {
	if days < 1 {
		days = 1
	}
	from := calendar.Day(today)
	to := from.AddDate(0, 0, days-1)
	return s.store.ListTasks(ctx, repository.DateRange{From: &from, To: &to})
}

// DailySummary renders today's agenda as Telegram HTML.
func (s *ReminderService) DailySummary(ctx context.Context, title string, today time.Time) (string, error) {
	tasks, err := s.Agenda(ctx, today, 1)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📋 <b>%s</b>\n", html.EscapeString(title)))
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", calendar.Day(today).Format("Mon, 02 Jan 2006")))

	if len(tasks) == 0 {
		builder.WriteString("Nothing planned for today.\n")
		return strings.TrimSpace(builder.String()), nil
	}

	open := 0
	for _, task := range tasks {
		if !task.Completed && !task.Missed {
			open++
		}
		builder.WriteString(FormatTask(task))
	}
	builder.WriteString(fmt.Sprintf("\n%d of %d still open", open, len(tasks)))

	return strings.TrimSpace(builder.String()), nil
}

// FormatTask renders one task line for chat messages.
func FormatTask(task model.Task) string {
	var sb strings.Builder

	icon := "🟢"
	switch {
	case task.Completed:
		icon = "✅"
	case task.Missed:
		icon = "⚠️"
	}

	sb.WriteString(fmt.Sprintf("%s #%d %s", icon, task.ID, html.EscapeString(strings.TrimSpace(task.TaskType))))
	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(strings.TrimSpace(task.Description))))
	}

	sb.WriteByte('\n')
	return sb.String()
}
