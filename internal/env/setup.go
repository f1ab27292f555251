package environment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"zemo-bot/internal/config"
	"zemo-bot/internal/metrics"
)

type closer func()

type Env struct {
	Config   *config.Config
	Logger   *slog.Logger
	Servers  *Servers
	Clients  *Clients
	Services *Services

	Closers []closer
}

func Setup(ctx context.Context) (*Env, error) {
	// Загружаем .env файл если он существует (игнорируем ошибки - файл может не существовать)
	_ = godotenv.Load()

	var cfg config.Config
	err := envconfig.Process(ctx, &cfg)
	if err != nil {
		return nil, fmt.Errorf("env processing: %w", err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("initLogger: %w", err)
	}

	metrics.InitMetrics()

	clients, err := newClients(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("newClients: %w", err)
	}

	closers := []closer{
		func() {
			if err := clients.Redis.Close(); err != nil {
				logger.Error("Failed to close redis", "error", err)
			}
		},
		func() {
			if err := clients.SQLiteDB.Close(); err != nil {
				logger.Error("Failed to close sqlite", "error", err)
			}
		},
	}

	services, err := newServices(ctx, clients, &cfg, logger)
	if err != nil {
		for _, c := range closers {
			c()
		}
		return nil, fmt.Errorf("newServices: %w", err)
	}

	return &Env{
		Config:   &cfg,
		Logger:   logger,
		Servers:  newServers(ctx, cfg, logger, clients, services),
		Clients:  clients,
		Services: services,
		Closers:  closers,
	}, nil
}
