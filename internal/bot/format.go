package bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"family-calendar/internal/calendar"
	"family-calendar/internal/model"
	"family-calendar/internal/service"
)

func escape(s string) string {
	return html.EscapeString(s)
}

// agendaText lists tasks grouped by day. Days without tasks are omitted.
func agendaText(tasks []model.Task, today time.Time, days int) string {
	var b strings.Builder
	if days <= 1 {
		b.WriteString(fmt.Sprintf("📅 <b>Today</b> · %s\n\n", today.Format("Mon 02 Jan")))
	} else {
		last := today.AddDate(0, 0, days-1)
		b.WriteString(fmt.Sprintf("🗓 <b>%s – %s</b>\n\n", today.Format("02 Jan"), last.Format("02 Jan")))
	}

	if len(tasks) == 0 {
		b.WriteString("Nothing planned.")
		return b.String()
	}

	var current time.Time
	for _, task := range tasks {
		day := task.Day()
		if days > 1 && !day.Equal(current) {
			if !current.IsZero() {
				b.WriteByte('\n')
			}
			b.WriteString(fmt.Sprintf("<b>%s</b>\n", day.Format("Mon 02 Jan")))
			current = day
		}
		b.WriteString(service.FormatTask(task))
	}
	return strings.TrimSpace(b.String())
}

// taskKeyboard offers done/missed buttons for every open task.
func taskKeyboard(tasks []model.Task) (tgbotapi.InlineKeyboardMarkup, bool) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		if task.Completed || task.Missed {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.TaskType, 20)),
				fmt.Sprintf("%s%d", cbDonePrefix, task.ID),
			),
			tgbotapi.NewInlineKeyboardButtonData("⚠️ Missed", fmt.Sprintf("%s%d", cbMissedPrefix, task.ID)),
		))
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func statusLine(task model.Task) string {
	state := "open again"
	switch {
	case task.Completed:
		state = "done ✅"
	case task.Missed:
		state = "missed ⚠️"
	}
	return fmt.Sprintf("#%d %s on %s is %s", task.ID, escape(task.TaskType), task.Day().Format(calendar.DayLayout), state)
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}
