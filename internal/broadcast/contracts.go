package broadcast

import (
	"context"

	"zemo-bot/internal/delivery"
)

type recipientIndex interface {
	Members(ctx context.Context) ([]int64, error)
}

type executor interface {
	Execute(ctx context.Context, target delivery.Target, call func(ctx context.Context) error) error
}

type messageSender interface {
	SendMessage(chatID int64, text string, markup interface{}) error
}
