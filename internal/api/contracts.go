package api

import (
	"context"

	"zemo-bot/internal/stories/profiles"
	"zemo-bot/internal/stories/subs"
)

type profileService interface {
	Save(ctx context.Context, chatID int64, payload []byte) (*profiles.Profile, error)
}

type subscriptionStatus interface {
	Status(ctx context.Context, chatID int64) (*subs.Record, subs.State, error)
}

type notifier interface {
	SendText(ctx context.Context, chatID int64, lang subs.Language, key string, params map[string]string) error
}
