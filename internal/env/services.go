package environment

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"zemo-bot/internal/broadcast"
	"zemo-bot/internal/config"
	"zemo-bot/internal/delivery"
	"zemo-bot/internal/localization"
	"zemo-bot/internal/storage"
	"zemo-bot/internal/stories/payment"
	"zemo-bot/internal/stories/profiles"
	"zemo-bot/internal/stories/subs"
	"zemo-bot/internal/telegram"
	"zemo-bot/internal/telegram/cmds"
	"zemo-bot/internal/telegram/states"
	"zemo-bot/internal/workers"
	"zemo-bot/internal/workers/indexsweep"
)

type Services struct {
	Records        *storage.RecordStore
	Localization   *localization.Service
	Executor       *delivery.Executor
	Subscriptions  *subs.Service
	Payments       *payment.Service
	Profiles       *profiles.Service
	Broadcast      *broadcast.Service
	Sender         *telegram.Sender
	TelegramRouter *telegram.Router
	Workers        *workers.Manager
}

func newServices(ctx context.Context, clients *Clients, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	var s Services

	// Документы и платежи в SQLite
	sqlStorage := storage.New(clients.SQLiteDB.DB)
	if err := sqlStorage.Migrate(ctx); err != nil {
		return nil, errors.Wrap(err, "migrate sqlite schema")
	}

	// Подписки и индекс активных получателей в Redis
	s.Records = storage.NewRecordStore(clients.Redis.Client, storage.WithKeys(
		cfg.Subscription.RecordPrefix,
		cfg.Subscription.TrialPrefix,
		cfg.Subscription.IndexKey,
	))

	tr, err := localization.NewService()
	if err != nil {
		return nil, errors.Wrap(err, "load translations")
	}
	s.Localization = tr

	gate := delivery.NewGate(
		delivery.WithLimits(cfg.Delivery.PerRecipientLimit, cfg.Delivery.GlobalLimit),
		delivery.WithWindow(cfg.Delivery.Window),
		delivery.WithPollInterval(cfg.Delivery.PollInterval),
	)
	s.Executor = delivery.NewExecutor(gate, logger,
		delivery.WithMaxAttempts(cfg.Delivery.MaxAttempts),
		delivery.WithInitialDelay(cfg.Delivery.InitialDelay),
	)

	policy := subs.Policy{
		TrialDuration:   cfg.Subscription.TrialDuration,
		PaidPeriod:      cfg.Subscription.PaidPeriod,
		InactivityTTL:   cfg.Subscription.InactivityTTL,
		InvoiceAmount:   cfg.Subscription.InvoiceAmount,
		InvoiceCurrency: cfg.Subscription.InvoiceCurrency,
	}
	s.Subscriptions = subs.NewService(s.Records, policy, logger)
	s.Payments = payment.NewService(sqlStorage, s.Subscriptions, logger)
	s.Profiles = profiles.NewService(sqlStorage, logger)

	bot := clients.TelegramBot
	s.Broadcast = broadcast.NewService(s.Records, s.Executor, bot, logger,
		broadcast.WithWorkers(cfg.Broadcast.Workers),
		broadcast.WithRate(cfg.Broadcast.RatePerSec),
	)

	s.Sender = telegram.NewSender(bot, s.Executor, tr, logger)
	s.TelegramRouter = telegram.NewRouter(
		s.Subscriptions,
		s.Payments,
		s.Profiles,
		s.Broadcast,
		states.NewManager(states.DefaultTTL),
		cmds.NewStatsCommand(s.Records, s.Payments, s.Sender),
		cmds.NewPaymentsCommand(s.Payments, s.Sender),
		s.Sender,
		tr,
		cfg.Telegram.SupportChatID,
		logger,
	)

	sweeper := indexsweep.NewWorker(
		s.Records,
		s.Executor,
		bot,
		tr,
		cfg.Workers.IndexSweepSchedule,
		cfg.Workers.NotifyExpired,
		logger,
	)
	s.Workers = workers.NewManager(logger.WithGroup("workers"), sweeper)

	return &s, nil
}
