package telegram

import (
	"context"

	"zemo-bot/internal/broadcast"
	"zemo-bot/internal/delivery"
	tgclient "zemo-bot/internal/infra/telegram"
	"zemo-bot/internal/stories/payment"
	"zemo-bot/internal/stories/profiles"
	"zemo-bot/internal/stories/subs"
	"zemo-bot/internal/telegram/states"
)

type botClient interface {
	SendMessage(chatID int64, text string, markup interface{}) error
	SendInvoice(inv tgclient.Invoice) error
	AnswerPreCheckout(queryID string, ok bool, errorMessage string) error
}

type executor interface {
	Execute(ctx context.Context, target delivery.Target, call func(ctx context.Context) error) error
}

type translator interface {
	Get(lang, key string, params map[string]string) string
	Matches(key, text string) bool
}

type subscriptionService interface {
	OnContact(ctx context.Context, chatID int64, locale string) (*subs.Reply, error)
	OnStart(ctx context.Context, chatID int64, locale string) (*subs.Reply, error)
	OnStop(ctx context.Context, chatID int64) (*subs.Reply, error)
	OnTrialRequest(ctx context.Context, chatID int64) (*subs.Reply, error)
	Status(ctx context.Context, chatID int64) (*subs.Record, subs.State, error)
}

type paymentService interface {
	ProcessSuccessful(ctx context.Context, p payment.Payment) (*subs.Reply, error)
}

type profileService interface {
	Get(ctx context.Context, chatID int64) (*profiles.Profile, error)
}

type broadcaster interface {
	Prepare(ctx context.Context, text string) (*broadcast.Job, error)
	Run(ctx context.Context, job *broadcast.Job) (broadcast.Result, error)
}

type dialogStates interface {
	SetState(chatID int64, state states.State)
	Take(chatID int64) states.State
	Clear(chatID int64)
}

type statsCommand interface {
	Execute(ctx context.Context, chatID int64) error
}

type paymentsCommand interface {
	Execute(ctx context.Context, chatID int64, args string) error
}
