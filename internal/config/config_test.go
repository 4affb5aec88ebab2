package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		DiscordToken:       "test-token",
		ChannelID:          "123456",
		ScheduleTime:       "12:00",
		Timezone:           "UTC",
		RetentionDays:      14,
		SendDelay:          time.Second,
		StateBackend:       StateBackendPinned,
		HealthCheckEnabled: true,
		HealthPort:         "8080",
		RetryConfig: RetryConfig{
			MaxRetries:        3,
			InitialDelay:      time.Second,
			MaxDelay:          30 * time.Second,
			BackoffMultiplier: 2.0,
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{name: "валидная конфигурация", modify: func(c *Config) {}},
		{name: "нет токена", modify: func(c *Config) { c.DiscordToken = "" }, wantErr: "DISCORD_BOT_TOKEN"},
		{name: "нет канала", modify: func(c *Config) { c.ChannelID = "" }, wantErr: "DISCORD_CHANNEL_ID"},
		{name: "неверное время", modify: func(c *Config) { c.ScheduleTime = "25:00" }, wantErr: "SCHEDULE_TIME"},
		{
			name: "cron вместо времени",
			modify: func(c *Config) {
				c.ScheduleTime = "bad"
				c.ScheduleCron = "0 9 * * *"
			},
		},
		{name: "неизвестный часовой пояс", modify: func(c *Config) { c.Timezone = "Mars/Olympus" }, wantErr: "TIMEZONE"},
		{name: "нулевой срок хранения", modify: func(c *Config) { c.RetentionDays = 0 }, wantErr: "RETENTION_DAYS"},
		{name: "отрицательная пауза", modify: func(c *Config) { c.SendDelay = -time.Second }, wantErr: "SEND_DELAY"},
		{name: "postgres без DSN", modify: func(c *Config) { c.StateBackend = StateBackendPostgres }, wantErr: "DB_DSN"},
		{
			name: "postgres с DSN",
			modify: func(c *Config) {
				c.StateBackend = StateBackendPostgres
				c.DatabaseURL = "postgres://localhost/db"
			},
		},
		{name: "gcs без бакета берет бакет по умолчанию", modify: func(c *Config) { c.StateBackend = StateBackendGCS }},
		{name: "неизвестное хранилище", modify: func(c *Config) { c.StateBackend = "redis" }, wantErr: "STATE_BACKEND"},
		{name: "telegram без чата", modify: func(c *Config) { c.TelegramBotToken = "tg" }, wantErr: "TELEGRAM"},
		{
			name: "telegram полностью",
			modify: func(c *Config) {
				c.TelegramBotToken = "tg"
				c.TelegramAdminChatID = 42
			},
		},
		{name: "health без порта", modify: func(c *Config) { c.HealthPort = "" }, wantErr: "HEALTH_PORT"},
		{
			name: "health выключен без порта",
			modify: func(c *Config) {
				c.HealthCheckEnabled = false
				c.HealthPort = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "test-token")
	t.Setenv("DISCORD_CHANNEL_ID", "987")
	t.Setenv("SCHEDULE_TIME", "09:30")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("RETENTION_DAYS", "7")
	t.Setenv("SEND_DELAY", "2s")
	t.Setenv("STATE_BACKEND", "GCS")
	t.Setenv("STATE_STRICT_DECODE", "false")
	t.Setenv("TELEGRAM_ADMIN_CHAT_ID", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-token", cfg.DiscordToken)
	assert.Equal(t, "987", cfg.ChannelID)
	assert.Equal(t, "09:30", cfg.ScheduleTime)
	assert.Equal(t, 7, cfg.RetentionDays)
	assert.Equal(t, 2*time.Second, cfg.SendDelay)
	assert.Equal(t, StateBackendGCS, cfg.StateBackend)
	assert.False(t, cfg.StrictDecode)
	assert.Equal(t, "epic-games-bot-data", cfg.GCS.Bucket)
	assert.Equal(t, "tracked_games.json", cfg.GCS.Object)
}

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "")
	t.Setenv("DISCORD_CHANNEL_ID", "987")

	_, err := Load()
	assert.Error(t, err)
}

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"SCHEDULE_TIME", "TIMEZONE", "RETENTION_DAYS", "SEND_DELAY", "STATE_BACKEND",
		"STATE_STRICT_DECODE", "HEALTH_PORT", "COMMAND_RATE_LIMIT", "RETRY_MAX_RETRIES",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, "12:00", cfg.ScheduleTime)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 14, cfg.RetentionDays)
	assert.Equal(t, time.Second, cfg.SendDelay)
	assert.Equal(t, StateBackendPinned, cfg.StateBackend)
	assert.True(t, cfg.StrictDecode)
	assert.Equal(t, "8080", cfg.HealthPort)
	assert.Equal(t, 5, cfg.CommandRateLimit)
	assert.Equal(t, 3, cfg.RetryConfig.MaxRetries)
}

func TestGetEnvHelpers_InvalidValues(t *testing.T) {
	t.Setenv("TEST_INT", "abc")
	t.Setenv("TEST_DURATION", "soon")
	t.Setenv("TEST_BOOL", "maybe")

	assert.Equal(t, 5, getEnvInt("TEST_INT", 5))
	assert.Equal(t, time.Minute, getEnvDuration("TEST_DURATION", time.Minute))
	assert.True(t, getEnvBool("TEST_BOOL", true))
}
