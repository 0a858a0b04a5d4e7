package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "NEBENKOSTEN_CONFIG"
	apiURLEnv         = "NEBENKOSTEN_API_URL"
	logLevelEnv       = "NEBENKOSTEN_LOG_LEVEL"
	tracingEnv        = "NEBENKOSTEN_TRACING"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"

	defaultBaseURL       = "http://localhost:8000/api/v1"
	defaultTimeout       = 30 * time.Second
	defaultPollSchedule  = "@every 2s"
	defaultMaxFileSizeMB = 10
	defaultCategory      = "SONSTIGE"
	defaultRedirectDelay = 2 * time.Second
)

// Config holds high-level settings required across the application.
type Config struct {
	API           APIConfig          `yaml:"api"`
	Polling       PollingConfig      `yaml:"polling"`
	Upload        UploadConfig       `yaml:"upload"`
	Review        ReviewConfig       `yaml:"review"`
	Navigation    NavigationConfig   `yaml:"navigation"`
	Notifications NotificationConfig `yaml:"notifications"`
	Tracing       TracingConfig      `yaml:"tracing"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// APIConfig describes the settlement backend.
type APIConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
}

// PollingConfig sets the refresh cadence while documents are processing.
type PollingConfig struct {
	Schedule string `yaml:"schedule"`
}

// UploadConfig bounds client-side upload validation.
type UploadConfig struct {
	MaxFileSizeMB int64 `yaml:"maxFileSizeMb"`
}

// MaxBytes converts the configured limit to bytes.
func (u UploadConfig) MaxBytes() int64 {
	return u.MaxFileSizeMB << 20
}

// ReviewConfig tunes the OCR review form.
type ReviewConfig struct {
	FallbackCategory string `yaml:"fallbackCategory"`
}

// NavigationConfig controls redirects after not-found errors.
type NavigationConfig struct {
	RedirectDelay time.Duration `yaml:"redirectDelay"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	// Endpoint overrides the Bot API host, mostly for tests.
	Endpoint string `yaml:"endpoint"`
}

// Enabled reports whether both token and chat are set.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// TracingConfig toggles the stdout span exporter.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"serviceName"`
}

// LoggingConfig sets the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads .env and YAML configuration (if present) and applies environment overrides.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: cannot read .env: %v", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if fileCfg, err := readFile(path); err != nil {
			log.Printf("config: %v (falling back to defaults)", err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func readFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Config{}, err
	}
	return fileCfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(apiURLEnv); v != "" {
		c.API.BaseURL = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(tracingEnv); v != "" {
		enabled, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			log.Printf("config: %s=%q is not a boolean, ignoring", tracingEnv, v)
		} else {
			c.Tracing.Enabled = enabled
		}
	}
}

func mergeConfig(base, override Config) Config {
	if override.API.BaseURL != "" {
		base.API.BaseURL = override.API.BaseURL
	}
	if override.API.Timeout > 0 {
		base.API.Timeout = override.API.Timeout
	}

	if override.Polling.Schedule != "" {
		base.Polling.Schedule = override.Polling.Schedule
	}

	if override.Upload.MaxFileSizeMB > 0 {
		base.Upload.MaxFileSizeMB = override.Upload.MaxFileSizeMB
	}

	if override.Review.FallbackCategory != "" {
		base.Review.FallbackCategory = override.Review.FallbackCategory
	}

	if override.Navigation.RedirectDelay > 0 {
		base.Navigation.RedirectDelay = override.Navigation.RedirectDelay
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}
	if override.Notifications.Telegram.Endpoint != "" {
		base.Notifications.Telegram.Endpoint = override.Notifications.Telegram.Endpoint
	}

	if override.Tracing.Enabled {
		base.Tracing.Enabled = true
	}
	if override.Tracing.ServiceName != "" {
		base.Tracing.ServiceName = override.Tracing.ServiceName
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		API:        APIConfig{BaseURL: defaultBaseURL, Timeout: defaultTimeout},
		Polling:    PollingConfig{Schedule: defaultPollSchedule},
		Upload:     UploadConfig{MaxFileSizeMB: defaultMaxFileSizeMB},
		Review:     ReviewConfig{FallbackCategory: defaultCategory},
		Navigation: NavigationConfig{RedirectDelay: defaultRedirectDelay},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{Endpoint: "https://api.telegram.org"},
		},
		Tracing: TracingConfig{ServiceName: "nebenkosten-console"},
		Logging: LoggingConfig{Level: "info"},
	}
}
