package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	environment "zemo-bot/internal/env"
	"zemo-bot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := environment.Setup(ctx)
	if err != nil {
		log.Fatalf("Failed to setup environment: %v", err)
	}

	logger := env.Logger
	logger.Info("Starting zemo-bot application")

	for name, srv := range map[string]*http.Server{
		"observability": env.Servers.HTTP.Observability,
		"api":           env.Servers.HTTP.API,
	} {
		go func() {
			logger.Info("Starting HTTP server", slog.String("name", name), slog.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", slog.String("name", name), slog.Any("error", err))
			}
		}()
	}

	if err := env.Services.Workers.Start(); err != nil {
		logger.Error("Failed to start workers", slog.Any("error", err))
		os.Exit(1)
	}

	var inflight sync.WaitGroup
	dispatched, err := runTelegramBot(ctx, env, &inflight)
	if err != nil {
		logger.Error("Failed to start telegram bot", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("Bot started successfully. Press Ctrl+C to stop.")
	<-ctx.Done()
	logger.Info("Shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), env.Config.ShutdownDuration)
	defer cancel()

	env.Clients.TelegramBot.Stop()

	// даём уже принятым апдейтам доделать отправки; Wait только после выхода
	// диспетчера, чтобы новый Add не гонялся с Wait
	done := make(chan struct{})
	go func() {
		<-dispatched
		inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("Shutdown timeout reached with updates still in flight")
	}

	env.Services.Workers.Stop()

	for name, srv := range map[string]*http.Server{
		"observability": env.Servers.HTTP.Observability,
		"api":           env.Servers.HTTP.API,
	} {
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server shutdown error", slog.String("name", name), slog.Any("error", err))
		}
	}

	for _, closer := range env.Closers {
		closer()
	}

	logger.Info("Application stopped")
}

func runTelegramBot(ctx context.Context, env *environment.Env, inflight *sync.WaitGroup) (<-chan struct{}, error) {
	logger := env.Logger
	bot := env.Clients.TelegramBot
	router := env.Services.TelegramRouter

	if err := bot.Start(ctx); err != nil {
		return nil, err
	}

	if err := bot.SetCommands(telegram.Commands()...); err != nil {
		// Не критично: меню команд можно выставить позже
		logger.Error("Failed to setup bot commands", slog.Any("error", err))
	}

	// отправки не должны обрываться при остановке: отменяется только чтение апдейтов
	handleCtx := context.WithoutCancel(ctx)

	handle := func(update tgbotapi.Update) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic while handling update", slog.Int("update_id", update.UpdateID), slog.Any("panic", r))
			}
		}()

		if err := router.Route(handleCtx, &update); err != nil {
			logger.Error("Ошибка обработки обновления",
				slog.Int("update_id", update.UpdateID),
				slog.Any("error", err))
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		dispatch(ctx, bot.GetUpdates(), inflight, handle)
	}()

	return done, nil
}

// dispatch runs every update in its own goroutine until ctx is done or the
// channel is closed. No update is started once ctx is done, even if one is
// already buffered.
func dispatch(ctx context.Context, updates <-chan tgbotapi.Update, inflight *sync.WaitGroup, handle func(tgbotapi.Update)) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok || ctx.Err() != nil {
				return
			}
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				handle(update)
			}()
		}
	}
}
