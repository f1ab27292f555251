package environment

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"zemo-bot/internal/config"
	"zemo-bot/internal/infra/redis"
	"zemo-bot/internal/infra/sqlite3"
	"zemo-bot/internal/infra/telegram"
)

type Clients struct {
	SQLiteDB    *sqlite3.DB
	Redis       *redis.Client
	TelegramBot *telegram.Client
}

func newClients(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Clients, error) {
	sqliteDB, err := provideSQLiteDB(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite")
	}

	redisClient, err := provideRedis(ctx, cfg)
	if err != nil {
		sqliteDB.Close()
		return nil, errors.Wrap(err, "redis")
	}

	telegramBot, err := provideTelegramBot(cfg, logger)
	if err != nil {
		sqliteDB.Close()
		redisClient.Close()
		return nil, errors.Wrap(err, "telegram")
	}

	return &Clients{
		SQLiteDB:    sqliteDB,
		Redis:       redisClient,
		TelegramBot: telegramBot,
	}, nil
}

func provideSQLiteDB(ctx context.Context, cfg config.Config) (*sqlite3.DB, error) {
	maxLifetimeStr := cfg.DB.MaxLifetime
	if maxLifetimeStr == "" {
		maxLifetimeStr = "5m"
	}
	maxLifetime, err := time.ParseDuration(maxLifetimeStr)
	if err != nil {
		return nil, errors.Wrapf(err, "parse DB_MAX_LIFETIME %q", maxLifetimeStr)
	}

	return sqlite3.New(ctx,
		sqlite3.WithPath(cfg.DB.Path),
		sqlite3.WithMaxOpenConns(cfg.DB.MaxOpenConns),
		sqlite3.WithMaxIdleConns(cfg.DB.MaxIdleConns),
		sqlite3.WithConnMaxLifetime(maxLifetime),
	)
}

func provideRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	return redis.New(ctx,
		redis.WithURL(cfg.Redis.URL),
		redis.WithPoolSize(cfg.Redis.PoolSize),
		redis.WithTimeouts(cfg.Redis.DialTimeout, cfg.Redis.ReadTimeout, cfg.Redis.WriteTimeout),
	)
}

func provideTelegramBot(cfg config.Config, logger *slog.Logger) (*telegram.Client, error) {
	return telegram.NewClient(cfg.Telegram.BotToken, logger.WithGroup("telegram"),
		telegram.WithHTTPTimeout(cfg.Telegram.Timeout),
		telegram.WithPollTimeout(cfg.Telegram.PollTimeout),
	)
}
