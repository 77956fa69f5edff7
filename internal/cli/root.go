package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"family-calendar/internal/config"
	appLog "family-calendar/internal/log"
	"family-calendar/internal/repository"
	"family-calendar/internal/service"
)

var (
	appVersion = "dev"
	appCommit  = "none"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit string) {
	appVersion = version
	appCommit = commit
}

// NewRootCmd builds the familycalendar command tree.
func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "familycalendar",
		Short: "Recurring household tasks on a shared calendar",
		Long: `familycalendar keeps weekday schedules materialized as dated tasks,
serves them over a JSON API and an iCalendar feed and can push a daily
summary to Telegram.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	load := func() (config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return cfg, err
		}
		level, err := appLog.ParseLevel(cfg.LogLevel)
		if err != nil {
			return cfg, err
		}
		appLog.SetLevel(level)
		return cfg, nil
	}

	root.AddCommand(
		newServeCmd(load),
		newRegenerateCmd(load),
		newImportCmd(load),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "familycalendar %s\ncommit: %s\n", appVersion, appCommit)
			},
		},
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

type loader func() (config.Config, error)

// app bundles the storage handle and the services built on it.
type app struct {
	db        *gorm.DB
	store     *repository.Store
	schedules *service.ScheduleService
	tasks     *service.TaskService
	reminders *service.ReminderService
}

func openApp(cfg config.Config) (*app, error) {
	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	store := repository.NewStore(db)
	return &app{
		db:        db,
		store:     store,
		schedules: service.NewScheduleService(store, time.Now),
		tasks:     service.NewTaskService(store),
		reminders: service.NewReminderService(store),
	}, nil
}

func (a *app) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
