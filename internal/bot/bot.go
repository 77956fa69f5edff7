package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"family-calendar/internal/calendar"
	appLog "family-calendar/internal/log"
	"family-calendar/internal/model"
	"family-calendar/internal/service"
)

const (
	cbDonePrefix   = "done:"
	cbMissedPrefix = "missed:"
)

const (
	menuLabelToday = "📅 Today"
	menuLabelWeek  = "🗓 Week"
	menuLabelHelp  = "ℹ️ Help"
)

// Options configures who the bot talks to.
type Options struct {
	Title string
	// ChatIDs receive the daily reminder. When non-empty only these chats
	// may use the bot.
	ChatIDs []int64
	Now     func() time.Time
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api          *tgbotapi.BotAPI
	taskSvc      *service.TaskService
	reminderSvc  *service.ReminderService
	opts         Options
	allowedChats map[int64]struct{}
}

func New(token string, taskSvc *service.TaskService, reminderSvc *service.ReminderService, opts Options) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	appLog.Info("bot authorized", "account", api.Self.UserName)
	return newBot(api, taskSvc, reminderSvc, opts), nil
}

func newBot(api *tgbotapi.BotAPI, taskSvc *service.TaskService, reminderSvc *service.ReminderService, opts Options) *Bot {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	allowed := make(map[int64]struct{}, len(opts.ChatIDs))
	for _, id := range opts.ChatIDs {
		allowed[id] = struct{}{}
	}
	return &Bot{
		api:          api,
		taskSvc:      taskSvc,
		reminderSvc:  reminderSvc,
		opts:         opts,
		allowedChats: allowed,
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	appLog.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				appLog.Error("handle callback", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !b.allowed(update.Message.Chat.ID) {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				appLog.Error("handle message", err, "chat_id", update.Message.Chat.ID)
			}
		}
	}

	return nil
}

// allowed reports whether chatID may use the bot.
func (b *Bot) allowed(chatID int64) bool {
	if len(b.allowedChats) == 0 {
		return true
	}
	_, ok := b.allowedChats[chatID]
	return ok
}

func (b *Bot) today() time.Time {
	return calendar.Day(b.opts.Now())
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.IsCommand() {
		appLog.Info("bot command", "chat_id", msg.Chat.ID, "command", msg.Command(), "args", msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	switch strings.ToLower(strings.TrimSpace(msg.Text)) {
	case strings.ToLower(menuLabelToday):
		return b.sendAgenda(ctx, msg.Chat.ID, 1)
	case strings.ToLower(menuLabelWeek):
		return b.sendAgenda(ctx, msg.Chat.ID, 7)
	case strings.ToLower(menuLabelHelp):
		return b.sendText(msg.Chat.ID, helpText)
	}

	return b.sendText(msg.Chat.ID, "I did not understand that. Try /today or /help.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start", "help":
		return b.sendText(msg.Chat.ID, helpText)
	case "today":
		return b.sendAgenda(ctx, msg.Chat.ID, 1)
	case "week":
		return b.sendAgenda(ctx, msg.Chat.ID, 7)
	case "report":
		return b.sendReport(ctx, msg.Chat.ID)
	case "done":
		return b.handleStatusCommand(ctx, msg, func(id uint) (*model.Task, error) {
			return b.taskSvc.ToggleStatus(ctx, id, service.StatusCompleted)
		})
	case "missed":
		return b.handleStatusCommand(ctx, msg, func(id uint) (*model.Task, error) {
			return b.taskSvc.MarkMissed(ctx, id)
		})
	case "move":
		return b.handleMove(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /today — today's tasks with buttons\n" +
	"• /week — the next seven days\n" +
	"• /done &lt;id&gt; — toggle a task completed\n" +
	"• /missed &lt;id&gt; — mark a task missed\n" +
	"• /move &lt;id&gt; &lt;YYYY-MM-DD&gt; — move a task by up to a week\n" +
	"• /report — today's summary"

func (b *Bot) handleStatusCommand(ctx context.Context, msg *tgbotapi.Message, apply func(id uint) (*model.Task, error)) error {
	id, err := parseCommandID(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Give a task id, for example /%s 12", msg.Command()))
	}
	task, err := apply(id)
	if err != nil {
		return b.sendText(msg.Chat.ID, userMessage(err))
	}
	return b.sendText(msg.Chat.ID, statusLine(*task))
}

func (b *Bot) handleMove(ctx context.Context, msg *tgbotapi.Message) error {
	fields := strings.Fields(msg.CommandArguments())
	if len(fields) != 2 {
		return b.sendText(msg.Chat.ID, "Usage: /move &lt;id&gt; &lt;YYYY-MM-DD&gt;")
	}
	id, err := parseCommandID(fields[0])
	if err != nil {
		return b.sendText(msg.Chat.ID, "The task id must be a number.")
	}
	day, err := calendar.ParseDay("new_date", fields[1])
	if err != nil {
		return b.sendText(msg.Chat.ID, userMessage(err))
	}
	task, err := b.taskSvc.Reschedule(ctx, id, day)
	if err != nil {
		return b.sendText(msg.Chat.ID, userMessage(err))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("📆 %s moved to %s", escape(task.TaskType), task.Day().Format(calendar.DayLayout)))
}

func (b *Bot) sendReport(ctx context.Context, chatID int64) error {
	text, err := b.reminderSvc.DailySummary(ctx, b.opts.Title, b.today())
	if err != nil {
		appLog.Error("build summary", err, "chat_id", chatID)
		return b.sendText(chatID, "Could not build the summary right now.")
	}
	return b.sendText(chatID, text)
}

// SendDailyReminders pushes today's summary to every configured chat.
func (b *Bot) SendDailyReminders(ctx context.Context) error {
	if len(b.opts.ChatIDs) == 0 {
		return nil
	}
	text, err := b.reminderSvc.DailySummary(ctx, b.opts.Title, b.today())
	if err != nil {
		return err
	}

	var errs []error
	for _, chatID := range b.opts.ChatIDs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := b.sendText(chatID, text); err != nil {
			appLog.Error("send reminder", err, "chat_id", chatID)
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

func (b *Bot) sendAgenda(ctx context.Context, chatID int64, days int) error {
	today := b.today()
	tasks, err := b.reminderSvc.Agenda(ctx, today, days)
	if err != nil {
		appLog.Error("load agenda", err, "chat_id", chatID)
		return b.sendText(chatID, "Could not load tasks right now.")
	}

	msg := tgbotapi.NewMessage(chatID, agendaText(tasks, today, days))
	msg.ParseMode = tgbotapi.ModeHTML
	if kb, ok := taskKeyboard(tasks); ok {
		msg.ReplyMarkup = kb
	} else {
		msg.ReplyMarkup = mainMenuKeyboard()
	}
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		appLog.Warn("callback ack failed", "err", err)
	}
	chatID := cb.Message.Chat.ID
	if !b.allowed(chatID) {
		return nil
	}

	var (
		task *model.Task
		err  error
	)
	switch {
	case strings.HasPrefix(cb.Data, cbDonePrefix):
		id, perr := parseTaskID(cb.Data, cbDonePrefix)
		if perr != nil {
			return nil
		}
		task, err = b.taskSvc.ToggleStatus(ctx, id, service.StatusCompleted)
	case strings.HasPrefix(cb.Data, cbMissedPrefix):
		id, perr := parseTaskID(cb.Data, cbMissedPrefix)
		if perr != nil {
			return nil
		}
		task, err = b.taskSvc.MarkMissed(ctx, id)
	default:
		return nil
	}
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}

	appLog.Info("task updated from chat", "chat_id", chatID, "task_id", task.ID, "completed", task.Completed, "missed", task.Missed)
	if err := b.sendText(chatID, statusLine(*task)); err != nil {
		return err
	}
	return b.sendAgenda(ctx, chatID, 1)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelWeek),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func parseTaskID(data, prefix string) (uint, error) {
	return parseCommandID(strings.TrimPrefix(data, prefix))
}

func parseCommandID(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(raw), "#"), 10, 64)
	if err != nil {
		return 0, err
	}
	if value == 0 {
		return 0, fmt.Errorf("task id must be positive")
	}
	return uint(value), nil
}

// userMessage turns a service error into chat text. Storage errors are
// logged and replaced with a generic line.
func userMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return "Task not found."
	case model.IsValidation(err):
		return "⚠️ " + escape(err.Error())
	default:
		appLog.Error("bot request failed", err)
		return "Something went wrong, try again later."
	}
}
