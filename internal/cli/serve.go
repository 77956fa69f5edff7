package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"family-calendar/internal/bot"
	"family-calendar/internal/calendar"
	"family-calendar/internal/config"
	appLog "family-calendar/internal/log"
	"family-calendar/internal/service"
	"family-calendar/internal/web"
)

func newServeCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the daily jobs and the optional Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(parent context.Context, cfg config.Config) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	regenerate := func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := a.schedules.RegenerateFutureTasks(jobCtx, calendar.Today()); err != nil {
			appLog.Error("regenerate job failed", err)
		}
	}
	// Catch up on days the process was down.
	regenerate()

	scheduler := service.NewSchedulerService(time.Local)
	regenerateID, err := scheduler.ScheduleDaily(cfg.RegenerateAt, regenerate)
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	running := 1

	if cfg.BotEnabled() {
		telegramBot, err := bot.New(cfg.TelegramToken, a.tasks, a.reminders, bot.Options{
			Title:   cfg.CalendarTitle,
			ChatIDs: cfg.TelegramChatIDs,
		})
		if err != nil {
			return err
		}
		if _, err := scheduler.ScheduleDaily(cfg.ReminderAt, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := telegramBot.SendDailyReminders(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				appLog.Error("reminder job failed", err)
			}
		}); err != nil {
			return err
		}
		running++
		go func() { errCh <- telegramBot.Start(ctx) }()
	} else {
		appLog.Info("telegram token not set, bot disabled")
	}

	scheduler.Start()
	defer scheduler.Stop()

	srv := web.NewServer(a.schedules, a.tasks, a.reminders, web.Options{
		Title:  cfg.CalendarTitle,
		APIKey: cfg.APIKey,
	})
	go func() { errCh <- srv.Run(ctx, cfg.ListenAddr) }()

	appLog.Info("family calendar started",
		"listen", cfg.ListenAddr,
		"regenerate_at", cfg.RegenerateAt,
		"next_regenerate", scheduler.Next(regenerateID).Format(time.RFC3339),
	)

	var firstErr error
	for ; running > 0; running-- {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
			cancel()
		}
	}
	appLog.Info("shutdown complete")
	return firstErr
}
