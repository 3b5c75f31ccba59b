// Package config handles process configuration from environment variables and
// the user-editable watcher settings.
package config

import (
	"fmt"
	"slices"

	"github.com/caarlos0/env/v11"
)

// Config holds the process configuration.
type Config struct {
	APIURL                   string  `env:"API_URL" envDefault:"https://api.warframestat.us/pc/fissures"`
	SettingsPath             string  `env:"SETTINGS_PATH" envDefault:"reapers-wf-config.toml"`
	DatabasePath             string  `env:"DATABASE_PATH" envDefault:"./data/fissures.db"`
	LogLevel                 string  `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr                 string  `env:"HTTP_ADDR"`
	DesktopNotifications     bool    `env:"DESKTOP_NOTIFICATIONS" envDefault:"true"`
	ConsoleColor             bool    `env:"CONSOLE_COLOR" envDefault:"true"`
	TelegramBotToken         string  `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatIDs          []int64 `env:"TELEGRAM_CHAT_IDS" envSeparator:","`
	AllowedUsers             []int64 `env:"ALLOWED_USERS" envSeparator:","`
	NATSURL                  string  `env:"NATS_URL"`
	NATSSubject              string  `env:"NATS_SUBJECT" envDefault:"fissures.events"`
	CancelRemindersOnRemoval bool    `env:"CANCEL_REMINDERS_ON_REMOVAL" envDefault:"false"`
	OTelEndpoint             string  `env:"OTEL_ENDPOINT"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("API_URL must not be empty")
	}
	return &cfg, nil
}

// IsUserAllowed checks whether a Telegram user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	return slices.Contains(c.AllowedUsers, userID)
}
