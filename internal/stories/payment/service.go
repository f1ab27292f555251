package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"zemo-bot/internal/stories/subs"
)

// ErrDuplicate is returned when the same charge is delivered more than once.
var ErrDuplicate = errors.New("payment already processed")

type Service struct {
	storage       Storage
	subscriptions SubscriptionService
	logger        *slog.Logger
}

func NewService(storage Storage, subscriptions SubscriptionService, logger *slog.Logger) *Service {
	return &Service{
		storage:       storage,
		subscriptions: subscriptions,
		logger:        logger.With("component", "payment"),
	}
}

// ProcessSuccessful verifies the payment reference, records the charge in the
// ledger and applies the payment to the subscription. The ledger row is removed
// again when the subscription update fails so a redelivery can be applied.
func (s *Service) ProcessSuccessful(ctx context.Context, p Payment) (*subs.Reply, error) {
	ref, err := subs.VerifyPaymentReference(p.Payload, p.ChatID)
	if err != nil {
		return nil, err
	}
	if p.ChargeID == "" {
		return nil, fmt.Errorf("%w: missing charge id", subs.ErrMalformedPayload)
	}

	p.ID = uuid.NewString()
	p.RequestedStatus = ref.Requested

	created, err := s.storage.CreatePayment(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("record payment %s: %w", p.ChargeID, err)
	}
	if !created {
		s.logger.Warn("duplicate payment delivery ignored", "chat_id", p.ChatID, "charge_id", p.ChargeID)
		return nil, ErrDuplicate
	}

	reply, err := s.subscriptions.OnPaymentCompleted(ctx, p.ChatID, ref.Requested)
	if err != nil {
		if delErr := s.storage.DeletePayment(ctx, p.ChargeID); delErr != nil {
			s.logger.Error("failed to revert payment record",
				"chat_id", p.ChatID, "charge_id", p.ChargeID, "error", delErr)
		}
		return nil, fmt.Errorf("apply payment %s: %w", p.ChargeID, err)
	}

	s.logger.Info("payment applied",
		"chat_id", p.ChatID,
		"charge_id", p.ChargeID,
		"amount", p.Amount,
		"currency", p.Currency,
		"requested", ref.Requested,
	)
	return reply, nil
}

func (s *Service) ListPayments(ctx context.Context, criteria ListCriteria) ([]*Payment, error) {
	return s.storage.ListPayments(ctx, criteria)
}

func (s *Service) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	return s.storage.GetPaymentStats(ctx, since)
}
