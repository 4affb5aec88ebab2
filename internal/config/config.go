// Package config содержит загрузку и валидацию конфигурации.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Хранилища состояния
const (
	StateBackendPinned   = "pinned"
	StateBackendPostgres = "postgres"
	StateBackendGCS      = "gcs"
	StateBackendMemory   = "memory"
)

// Config представляет конфигурацию приложения
type Config struct {
	// Discord
	DiscordToken     string
	ChannelID        string
	CommandRateLimit int
	CommandDebounce  time.Duration

	// Schedule
	ScheduleTime  string
	ScheduleCron  string
	Timezone      string
	RunOnStartup  bool
	RetentionDays int
	SendDelay     time.Duration

	// Storefront
	StoreURL     string
	StoreBaseURL string
	StoreLocale  string

	// State
	StateBackend string
	StrictDecode bool
	DatabaseURL  string
	GCS          GCSConfig

	// Telegram
	TelegramBotToken    string
	TelegramAdminChatID int64

	// Health
	HealthPort         string
	HealthCheckEnabled bool

	// Logging
	LogLevel string

	// HTTP Client
	HTTPClientConfig HTTPClientConfig

	// Retry
	RetryConfig RetryConfig

	// App Data Directory
	AppDataDir string
}

// GCSConfig представляет конфигурацию хранилища Cloud Storage
type GCSConfig struct {
	Bucket          string
	Object          string
	CredentialsFile string
	Endpoint        string
}

// HTTPClientConfig представляет конфигурацию HTTP клиента
type HTTPClientConfig struct {
	Timeout               time.Duration
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	IdleConnTimeout       time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration
	DisableKeepAlives     bool
	MaxBodyBytes          int64
}

// RetryConfig представляет конфигурацию retry механизма
type RetryConfig struct {
	MaxRetries        int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	config := FromEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// FromEnv читает конфигурацию из окружения без валидации
func FromEnv() *Config {
	return &Config{
		DiscordToken:     getEnv("DISCORD_BOT_TOKEN", ""),
		ChannelID:        getEnv("DISCORD_CHANNEL_ID", ""),
		CommandRateLimit: getEnvInt("COMMAND_RATE_LIMIT", 5),
		CommandDebounce:  getEnvDuration("COMMAND_DEBOUNCE", 10*time.Second),

		ScheduleTime:  getEnv("SCHEDULE_TIME", "12:00"),
		ScheduleCron:  getEnv("SCHEDULE_CRON", ""),
		Timezone:      getEnv("TIMEZONE", "UTC"),
		RunOnStartup:  getEnvBool("RUN_ON_STARTUP", false),
		RetentionDays: getEnvInt("RETENTION_DAYS", 14),
		SendDelay:     getEnvDuration("SEND_DELAY", time.Second),

		StoreURL:     getEnv("STORE_URL", "https://store-site-backend-static.ak.epicgames.com/freeGamesPromotions"),
		StoreBaseURL: getEnv("STORE_BASE_URL", "https://www.epicgames.com"),
		StoreLocale:  getEnv("STORE_LOCALE", "en-US"),

		StateBackend: strings.ToLower(getEnv("STATE_BACKEND", StateBackendPinned)),
		StrictDecode: getEnvBool("STATE_STRICT_DECODE", true),
		DatabaseURL:  getEnv("DB_DSN", ""),
		GCS: GCSConfig{
			Bucket:          getEnv("GCS_BUCKET", "epic-games-bot-data"),
			Object:          getEnv("GCS_OBJECT", "tracked_games.json"),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", "/secrets/gcp-key.json"),
			Endpoint:        getEnv("GCS_ENDPOINT", ""),
		},

		TelegramBotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAdminChatID: getEnvInt64("TELEGRAM_ADMIN_CHAT_ID", 0),

		HealthPort:         getEnv("HEALTH_PORT", "8080"),
		HealthCheckEnabled: getEnvBool("HEALTH_CHECK_ENABLED", true),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPClientConfig: HTTPClientConfig{
			Timeout:               getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
			MaxIdleConns:          getEnvInt("HTTP_MAX_IDLE_CONNS", 100),
			MaxIdleConnsPerHost:   getEnvInt("HTTP_MAX_IDLE_CONNS_PER_HOST", 10),
			IdleConnTimeout:       getEnvDuration("HTTP_IDLE_CONN_TIMEOUT", 90*time.Second),
			TLSHandshakeTimeout:   getEnvDuration("HTTP_TLS_HANDSHAKE_TIMEOUT", 10*time.Second),
			ResponseHeaderTimeout: getEnvDuration("HTTP_RESPONSE_HEADER_TIMEOUT", 30*time.Second),
			DisableKeepAlives:     getEnvBool("HTTP_DISABLE_KEEP_ALIVES", false),
			MaxBodyBytes:          getEnvInt64("HTTP_MAX_BODY_BYTES", 10<<20),
		},
		RetryConfig: RetryConfig{
			MaxRetries:        getEnvInt("RETRY_MAX_RETRIES", 3),
			InitialDelay:      getEnvDuration("RETRY_INITIAL_DELAY", 1*time.Second),
			MaxDelay:          getEnvDuration("RETRY_MAX_DELAY", 30*time.Second),
			BackoffMultiplier: getEnvFloat("RETRY_BACKOFF_MULTIPLIER", 2.0),
		},

		AppDataDir: getEnv("APP_DATA_DIR", "./data"),
	}
}

// GetAppDataDir возвращает директорию данных приложения
func (c *Config) GetAppDataDir() string {
	return c.AppDataDir
}

// Location возвращает часовой пояс расписания и дат
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}

	if c.ChannelID == "" {
		return fmt.Errorf("DISCORD_CHANNEL_ID is required")
	}

	if c.ScheduleCron == "" {
		if _, err := time.Parse("15:04", c.ScheduleTime); err != nil {
			return fmt.Errorf("SCHEDULE_TIME must be HH:MM, got %q", c.ScheduleTime)
		}
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if c.RetentionDays < 1 {
		return fmt.Errorf("RETENTION_DAYS must be at least 1")
	}

	if c.SendDelay < 0 {
		return fmt.Errorf("SEND_DELAY must not be negative")
	}

	switch c.StateBackend {
	case StateBackendPinned, StateBackendMemory, StateBackendGCS:
	case StateBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DB_DSN is required for postgres state backend")
		}
	default:
		return fmt.Errorf("unknown STATE_BACKEND %q", c.StateBackend)
	}

	if (c.TelegramBotToken == "") != (c.TelegramAdminChatID == 0) {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_ADMIN_CHAT_ID must be set together")
	}

	if c.HealthCheckEnabled && c.HealthPort == "" {
		return fmt.Errorf("HEALTH_PORT is required when health check is enabled")
	}

	if c.RetryConfig.MaxRetries < 0 {
		return fmt.Errorf("RETRY_MAX_RETRIES must not be negative")
	}

	return nil
}

// getEnv получает переменную окружения с значением по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает переменную окружения как int
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvInt64 получает переменную окружения как int64
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration получает переменную окружения как time.Duration
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvBool получает переменную окружения как bool
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvFloat получает переменную окружения как float64
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
