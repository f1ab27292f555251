package payment

import (
	"context"
	"time"

	"zemo-bot/internal/stories/subs"
)

type (
	Storage interface {
		// CreatePayment inserts the payment unless its charge id is already
		// recorded and reports whether a row was inserted.
		CreatePayment(ctx context.Context, p Payment) (bool, error)
		DeletePayment(ctx context.Context, chargeID string) error
		ListPayments(ctx context.Context, criteria ListCriteria) ([]*Payment, error)
		GetPaymentStats(ctx context.Context, since time.Time) (*Stats, error)
	}

	SubscriptionService interface {
		OnPaymentCompleted(ctx context.Context, chatID int64, paidStatus subs.BotStatus) (*subs.Reply, error)
	}
)
