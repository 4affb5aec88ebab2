package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		value   string
		want    zapcore.Level
		wantErr bool
	}{
		{value: "", want: zapcore.InfoLevel},
		{value: "debug", want: zapcore.DebugLevel},
		{value: "warn", want: zapcore.WarnLevel},
		{value: "ERROR", want: zapcore.ErrorLevel},
		{value: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := parseLevel(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewWithOptions_WritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")

	logger, err := NewWithOptions(Options{Level: "info", Path: path, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Debug("hidden message")
	logger.Info("Cycle finished")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, `"msg":"Cycle finished"`)
	assert.Contains(t, content, `"level":"INFO"`)
	assert.Contains(t, content, `"timestamp":`)
	assert.False(t, strings.Contains(content, "hidden message"))
}

func TestGetLogPath(t *testing.T) {
	t.Setenv("LOG_PATH", "")
	t.Setenv("APP_DATA_DIR", "/var/lib/bot")
	assert.Equal(t, filepath.Join("/var/lib/bot", "app.log"), getLogPath())

	t.Setenv("LOG_PATH", "/tmp/custom.log")
	assert.Equal(t, "/tmp/custom.log", getLogPath())
}
