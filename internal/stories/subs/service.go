package subs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"zemo-bot/internal/metrics"
)

// Translation keys rendered for each outcome.
const (
	KeyWelcome     = "subscription.welcome"
	KeyStart       = "subscription.start"
	KeyStop        = "subscription.stop"
	KeyStopExpired = "subscription.stop_expired"
	KeyTrial       = "subscription.trial"
	KeyTrialUsed   = "subscription.trial_used"
	KeyTrialActive = "subscription.trial_active"
	KeyInvoice     = "subscription.invoice"
	KeyPayment     = "subscription.payment"
)

const maxConflictAttempts = 3

type Service struct {
	storage Storage
	policy  Policy
	now     func() time.Time
	logger  *slog.Logger
	tracer  trace.Tracer
}

func NewService(storage Storage, policy Policy, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		policy:  policy,
		now:     time.Now,
		logger:  logger.With("component", "subs"),
		tracer:  otel.Tracer("zemo-bot/subs"),
	}
}

// OnContact creates the record on first contact. Existing records are left untouched.
func (s *Service) OnContact(ctx context.Context, chatID int64, locale string) (*Reply, error) {
	return s.Handle(ctx, Input{Event: EventContact, ChatID: chatID, Locale: locale})
}

func (s *Service) OnStart(ctx context.Context, chatID int64, locale string) (*Reply, error) {
	return s.Handle(ctx, Input{Event: EventStart, ChatID: chatID, Locale: locale})
}

func (s *Service) OnStop(ctx context.Context, chatID int64) (*Reply, error) {
	return s.Handle(ctx, Input{Event: EventStop, ChatID: chatID})
}

func (s *Service) OnTrialRequest(ctx context.Context, chatID int64) (*Reply, error) {
	return s.Handle(ctx, Input{Event: EventTrial, ChatID: chatID})
}

func (s *Service) OnPaymentCompleted(ctx context.Context, chatID int64, paidStatus BotStatus) (*Reply, error) {
	return s.Handle(ctx, Input{Event: EventPayment, ChatID: chatID, Requested: paidStatus})
}

// Status returns the stored record and its derived state.
func (s *Service) Status(ctx context.Context, chatID int64) (*Record, State, error) {
	rec, err := s.storage.GetRecord(ctx, chatID)
	if err != nil {
		return nil, "", fmt.Errorf("get record %d: %w", chatID, err)
	}
	return rec, DeriveState(*rec, s.now()), nil
}

// Handle reads the record, decides the transition and commits it. A write
// rejected by the revision check is re-read and re-decided.
func (s *Service) Handle(ctx context.Context, in Input) (*Reply, error) {
	ctx, span := s.tracer.Start(ctx, "subs.Handle", trace.WithAttributes(
		attribute.String("event", string(in.Event)),
		attribute.Int64("chat_id", in.ChatID),
	))
	defer span.End()

	in.Now = s.now()
	if err := validate(in); err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		rec, err := s.storage.GetRecord(ctx, in.ChatID)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("get record %d: %w", in.ChatID, err)
		}
		in.Record = *rec
		in.Now = s.now()

		t, err := s.policy.Decide(in)
		if err != nil {
			return nil, err
		}

		if t.Mutation != nil {
			err = s.storage.ApplyMutation(ctx, in.ChatID, *t.Mutation)
			if errors.Is(err, ErrConflict) && attempt < maxConflictAttempts {
				metrics.StoreConflictsTotal.Inc()
				s.logger.Debug("record changed concurrently, retrying",
					"chat_id", in.ChatID, "event", in.Event, "attempt", attempt)
				continue
			}
			if err != nil {
				span.RecordError(err)
				return nil, fmt.Errorf("apply %s for %d: %w", in.Event, in.ChatID, err)
			}
		}

		metrics.TransitionsTotal.WithLabelValues(string(in.Event), string(t.Outcome)).Inc()
		s.logger.Info("subscription event handled",
			"chat_id", in.ChatID,
			"event", in.Event,
			"outcome", t.Outcome,
			"indexed", t.Mutation != nil && t.Mutation.Indexed,
		)

		return s.reply(in, t), nil
	}
}

func (s *Service) reply(in Input, t Transition) *Reply {
	rec := in.Record
	if t.Mutation != nil {
		rec = t.Mutation.Record
	}
	lang := ResolveLanguage(rec, in.Locale)

	r := &Reply{
		Outcome:  t.Outcome,
		Language: lang,
		Running:  rec.BotStatus == BotStatusRunning,
		Invoice:  t.Invoice,
	}
	if rec.SubscriptionEnd > 0 {
		r.End = rec.EndTime()
	}

	switch t.Outcome {
	case OutcomeWelcomed:
		r.TextKeys = []string{KeyWelcome}
	case OutcomeActivated:
		r.TextKeys = []string{KeyStart}
	case OutcomePurchaseRequired:
		r.TextKeys = []string{KeyInvoice}
	case OutcomeStopped:
		r.TextKeys = []string{KeyStop}
	case OutcomeStoppedExpired:
		r.TextKeys = []string{KeyStopExpired}
	case OutcomeTrialUnavailable:
		r.TextKeys = []string{KeyTrialActive}
	case OutcomeTrialConsumed:
		r.TextKeys = []string{KeyTrialUsed}
	case OutcomeTrialGranted:
		r.TextKeys = []string{KeyTrial}
	case OutcomePaymentApplied:
		r.TextKeys = []string{KeyPayment}
		r.Params = map[string]string{"date": FormatEnd(r.End, lang)}
	}

	return r
}

// FormatEnd renders an entitlement end the way users of each language expect.
func FormatEnd(end time.Time, lang Language) string {
	if lang == LanguageRU {
		return end.Format("02-01-2006 15:04")
	}
	return end.Format("2006-01-02 15:04")
}
