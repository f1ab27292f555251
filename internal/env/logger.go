package environment

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"zemo-bot/internal/config"
)

const redacted = "[REDACTED]"

func initLogger(cfg config.Config) (*slog.Logger, error) {
	return newLogger(os.Stdout, cfg), nil
}

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	level := parseLogLevel(cfg.Logger.Level)
	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   level == slog.LevelDebug && cfg.Env != "local",
		ReplaceAttr: redactSecrets(cfg.Telegram.BotToken, cfg.API.Token),
	}

	var handler slog.Handler
	if cfg.Env == "local" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With("env", cfg.Env)
}

// redactSecrets вырезает токены из строк и ошибок: ошибки Bot API содержат URL
// вида https://api.telegram.org/bot<token>/sendMessage.
func redactSecrets(secrets ...string) func(groups []string, a slog.Attr) slog.Attr {
	var nonEmpty []string
	for _, s := range secrets {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) == 0 {
		return nil
	}

	replacer := strings.NewReplacer(pairs(nonEmpty)...)
	return func(_ []string, a slog.Attr) slog.Attr {
		switch a.Value.Kind() {
		case slog.KindString:
			return slog.String(a.Key, replacer.Replace(a.Value.String()))
		case slog.KindAny:
			if err, ok := a.Value.Any().(error); ok {
				return slog.String(a.Key, replacer.Replace(err.Error()))
			}
		}
		return a
	}
}

func pairs(secrets []string) []string {
	out := make([]string, 0, len(secrets)*2)
	for _, s := range secrets {
		out = append(out, s, redacted)
	}
	return out
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
