package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	appLog "family-calendar/internal/log"
	"family-calendar/internal/service"
)

// Config keeps runtime settings for the server, the jobs and the bot.
type Config struct {
	DatabaseURL     string
	ListenAddr      string
	CalendarTitle   string
	RegenerateAt    string
	ReminderAt      string
	TelegramToken   string
	TelegramChatIDs []int64
	APIKey          string
	LogLevel        string
}

// Load reads configuration from defaults, an optional YAML file at path and
// upper-case environment variables, in increasing priority.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("database_url", "family_calendar.db")
	v.SetDefault("listen_addr", "127.0.0.1:8080")
	v.SetDefault("calendar_title", "Calendar")
	v.SetDefault("regenerate_at", "00:05")
	v.SetDefault("reminder_at", "07:00")
	v.SetDefault("telegram_token", "")
	v.SetDefault("telegram_chat_ids", "")
	v.SetDefault("api_key", "")
	v.SetDefault("log_level", "info")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	chatIDs, err := parseChatIDs(v.GetStringSlice("telegram_chat_ids"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DatabaseURL:     strings.TrimSpace(v.GetString("database_url")),
		ListenAddr:      strings.TrimSpace(v.GetString("listen_addr")),
		CalendarTitle:   strings.TrimSpace(v.GetString("calendar_title")),
		RegenerateAt:    strings.TrimSpace(v.GetString("regenerate_at")),
		ReminderAt:      strings.TrimSpace(v.GetString("reminder_at")),
		TelegramToken:   strings.TrimSpace(v.GetString("telegram_token")),
		TelegramChatIDs: chatIDs,
		APIKey:          v.GetString("api_key"),
		LogLevel:        strings.TrimSpace(v.GetString("log_level")),
	}
	return cfg, cfg.Validate()
}

// Validate checks the values Load cannot type-check on its own.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}
	if _, err := service.BuildDailySpec(c.RegenerateAt); err != nil {
		return fmt.Errorf("regenerate_at: %w", err)
	}
	if _, err := service.BuildDailySpec(c.ReminderAt); err != nil {
		return fmt.Errorf("reminder_at: %w", err)
	}
	if _, err := appLog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// BotEnabled reports whether a Telegram token was configured.
func (c Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

// parseChatIDs accepts YAML lists as well as comma or space separated env
// values.
func parseChatIDs(raw []string) ([]int64, error) {
	var ids []int64
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("telegram_chat_ids: invalid chat id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
