package payment

import (
	"time"

	"zemo-bot/internal/stories/subs"
)

// Payment is one successful Telegram payment, keyed by its charge id.
type Payment struct {
	ID               string
	ChatID           int64
	ChargeID         string
	ProviderChargeID string
	Amount           int
	Currency         string
	Payload          string
	RequestedStatus  subs.BotStatus
	CreatedAt        time.Time
}

// Критерии для списка платежей
type ListCriteria struct {
	ChatID *int64
	Limit  int
	Offset int
}

// Stats aggregates the ledger since a point in time.
type Stats struct {
	Since  time.Time
	Count  int
	Amount int
}
