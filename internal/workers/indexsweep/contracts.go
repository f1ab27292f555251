package indexsweep

import (
	"context"
	"time"

	"zemo-bot/internal/delivery"
	"zemo-bot/internal/stories/subs"
)

type Index interface {
	Members(ctx context.Context) ([]int64, error)
	EvictIfInactive(ctx context.Context, chatID int64, now time.Time) (bool, error)
	GetRecord(ctx context.Context, chatID int64) (*subs.Record, error)
}

type Executor interface {
	Execute(ctx context.Context, target delivery.Target, call func(ctx context.Context) error) error
}

type Notifier interface {
	SendMessage(chatID int64, text string, markup interface{}) error
}

type Translator interface {
	Get(lang, key string, params map[string]string) string
}
