package environment

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"zemo-bot/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "verbose", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestLoggerRedactsSecrets(t *testing.T) {
	var cfg config.Config
	cfg.Env = "prod"
	cfg.Logger.Level = "info"
	cfg.Telegram.BotToken = "123:ABC"
	cfg.API.Token = "s3cret"

	var buf bytes.Buffer
	logger := newLogger(&buf, cfg)

	err := errors.New(`Post "https://api.telegram.org/bot123:ABC/sendMessage": i/o timeout`)
	logger.Error("Failed to send message", "error", err, "header", "s3cret")

	out := buf.String()
	assert.NotContains(t, out, "123:ABC")
	assert.NotContains(t, out, "s3cret")
	assert.Contains(t, out, "bot[REDACTED]/sendMessage")
	assert.Contains(t, out, `"env":"prod"`)
}

func TestLoggerWithoutSecrets(t *testing.T) {
	var cfg config.Config
	cfg.Env = "local"

	var buf bytes.Buffer
	newLogger(&buf, cfg).Info("started", "chat_id", 42)

	assert.Contains(t, buf.String(), "chat_id=42")
	assert.Contains(t, buf.String(), "env=local")
}
