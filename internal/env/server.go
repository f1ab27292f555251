package environment

import (
	"context"
	"log/slog"
	"net/http"

	"zemo-bot/internal/api"
	"zemo-bot/internal/config"
)

type Servers struct {
	HTTP struct {
		Observability *http.Server
		API           *http.Server
	}
}

func newServers(ctx context.Context, cfg config.Config, logger *slog.Logger, clients *Clients, services *Services) *Servers {
	var servers Servers

	settings := api.NewSettingsHandler(
		services.Profiles,
		services.Subscriptions,
		services.Sender,
		cfg.API.Token,
		logger.WithGroup("api"),
	)

	servers.HTTP.API = &http.Server{
		Handler:           api.NewMux(settings),
		Addr:              cfg.API.ADDR(),
		ReadTimeout:       cfg.API.ReadTimeout,
		WriteTimeout:      cfg.API.WriteTimeout,
		IdleTimeout:       cfg.API.IdleTimeout,
		ReadHeaderTimeout: cfg.API.ReadTimeout,
	}
	servers.HTTP.Observability = initObservability(ctx, logger.WithGroup("http"), clients, services, cfg)

	return &servers
}
