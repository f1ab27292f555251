package indexsweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"zemo-bot/internal/delivery"
	"zemo-bot/internal/metrics"
	"zemo-bot/internal/stories/subs"
)

const DefaultSchedule = "*/10 * * * *"

// Worker removes recipients whose entitlement lapsed from the active index.
// Mutations keep the index exact; this only covers expiry by the clock.
type Worker struct {
	index    Index
	exec     Executor
	notifier Notifier
	tr       Translator
	schedule string
	notify   bool
	now      func() time.Time
	logger   *slog.Logger
	cron     *cron.Cron
}

func NewWorker(index Index, exec Executor, notifier Notifier, tr Translator, schedule string, notify bool, logger *slog.Logger) *Worker {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Worker{
		index:    index,
		exec:     exec,
		notifier: notifier,
		tr:       tr,
		schedule: schedule,
		notify:   notify,
		now:      time.Now,
		logger:   logger.With("worker", "index_sweep"),
		cron:     cron.New(),
	}
}

func (w *Worker) Name() string {
	return "index_sweep"
}

func (w *Worker) Start() error {
	_, err := w.cron.AddFunc(w.schedule, func() {
		evicted, err := w.Sweep(context.Background())
		if err != nil {
			w.logger.Error("Index sweep failed", "error", err)
			return
		}
		w.logger.Info("Index sweep finished", "evicted", evicted)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule index sweep: %w", err)
	}

	w.cron.Start()
	return nil
}

func (w *Worker) Stop() {
	<-w.cron.Stop().Done()
}

// Sweep evicts lapsed members and returns how many were removed.
func (w *Worker) Sweep(ctx context.Context) (int, error) {
	members, err := w.index.Members(ctx)
	if err != nil {
		return 0, fmt.Errorf("list index: %w", err)
	}

	evicted := 0
	for _, chatID := range members {
		// язык читаем до удаления: запись может истечь вместе с подпиской
		rec, err := w.index.GetRecord(ctx, chatID)
		if err != nil {
			w.logger.Error("Failed to read record", "chat_id", chatID, "error", err)
			continue
		}

		removed, err := w.index.EvictIfInactive(ctx, chatID, w.now())
		if err != nil {
			w.logger.Error("Failed to evict member", "chat_id", chatID, "error", err)
			continue
		}
		if !removed {
			continue
		}

		evicted++
		metrics.IndexEvictionsTotal.Inc()
		w.logger.Info("Evicted lapsed recipient", "chat_id", chatID, "record_exists", rec.Exists)

		if w.notify {
			w.sendExpired(ctx, chatID, subs.ResolveLanguage(*rec, ""))
		}
	}

	return evicted, nil
}

func (w *Worker) sendExpired(ctx context.Context, chatID int64, lang subs.Language) {
	text := w.tr.Get(string(lang), subs.KeyStopExpired, nil)
	err := w.exec.Execute(ctx, delivery.To(chatID, text), func(context.Context) error {
		return w.notifier.SendMessage(chatID, text, nil)
	})
	if err != nil {
		w.logger.Warn("Failed to send expiry notice", "chat_id", chatID, "error", err)
	}
}
