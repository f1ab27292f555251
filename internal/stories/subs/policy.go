package subs

import (
	"fmt"
	"time"
)

// Policy holds the durations and prices of the subscription lifecycle.
type Policy struct {
	TrialDuration   time.Duration
	PaidPeriod      time.Duration
	InactivityTTL   time.Duration
	InvoiceAmount   int
	InvoiceCurrency string
}

func DefaultPolicy() Policy {
	return Policy{
		TrialDuration:   48 * time.Hour,
		PaidPeriod:      7 * 24 * time.Hour,
		InactivityTTL:   time.Duration(1.2 * 30 * 24 * float64(time.Hour)),
		InvoiceAmount:   10000,
		InvoiceCurrency: "XTR",
	}
}

type Input struct {
	Event  Event
	ChatID int64
	Record Record
	Now    time.Time
	// Locale is the platform language code of the sender, used when the record has none.
	Locale string
	// Requested is the bot status carried by the payment reference.
	Requested BotStatus
}

// Transition is the decision for one event. A nil Mutation means nothing is written.
type Transition struct {
	Outcome  Outcome
	Mutation *Mutation
	Invoice  *InvoiceRequest
}

// Decide computes the next record state for an event. It has no side effects;
// the input is validated before anything is decided so a rejected event never
// produces a partial write.
func (p Policy) Decide(in Input) (Transition, error) {
	if err := validate(in); err != nil {
		return Transition{}, err
	}

	cur := in.Record
	cur.ChatID = in.ChatID
	if cur.BotStatus == "" {
		cur.BotStatus = BotStatusStopped
	}
	cur.Language = ResolveLanguage(cur, in.Locale)

	switch in.Event {
	case EventContact:
		if in.Record.Exists {
			return Transition{Outcome: OutcomeWelcomed}, nil
		}
		return Transition{
			Outcome:  OutcomeWelcomed,
			Mutation: p.mutation(in, cur, false),
		}, nil

	case EventStart:
		if !cur.Entitled(in.Now) {
			t := Transition{
				Outcome: OutcomePurchaseRequired,
				Invoice: p.invoice(in.ChatID, BotStatusStopped),
			}
			if !in.Record.Exists {
				t.Mutation = p.mutation(in, cur, false)
			}
			return t, nil
		}
		cur.BotStatus = BotStatusRunning
		return Transition{
			Outcome:  OutcomeActivated,
			Mutation: p.mutation(in, cur, false),
		}, nil

	case EventStop:
		outcome := OutcomeStopped
		if !cur.Entitled(in.Now) {
			outcome = OutcomeStoppedExpired
		}
		cur.BotStatus = BotStatusStopped
		return Transition{
			Outcome:  outcome,
			Mutation: p.mutation(in, cur, false),
		}, nil

	case EventTrial:
		switch {
		case cur.Entitled(in.Now):
			return Transition{Outcome: OutcomeTrialUnavailable}, nil
		case cur.TrialUsed:
			return Transition{
				Outcome: OutcomeTrialConsumed,
				Invoice: p.invoice(in.ChatID, BotStatusStopped),
			}, nil
		}
		cur.TrialUsed = true
		cur.SubscriptionEnd = in.Now.Add(p.TrialDuration).Unix()
		cur.BotStatus = BotStatusStopped
		cur.Plan = PlanTrial
		return Transition{
			Outcome:  OutcomeTrialGranted,
			Mutation: p.mutation(in, cur, true),
		}, nil

	case EventPayment:
		cur.SubscriptionEnd = ExtendEnd(cur.SubscriptionEnd, in.Now, p.PaidPeriod)
		cur.BotStatus = in.Requested
		cur.Plan = PlanPaid
		return Transition{
			Outcome:  OutcomePaymentApplied,
			Mutation: p.mutation(in, cur, false),
		}, nil
	}

	return Transition{}, fmt.Errorf("%w: unknown event %q", ErrMalformedPayload, in.Event)
}

// ExtendEnd returns max(now, end) + period in unix seconds. A renewal never
// shortens paid time and a lapsed subscription restarts from now.
func ExtendEnd(end int64, now time.Time, period time.Duration) int64 {
	base := max(now.Unix(), end)
	return base + int64(period/time.Second)
}

// TTL of the record key: remaining entitlement while entitled, the inactivity
// window otherwise. Only a stop keeps the longer of the two, so pausing never
// purges paid time early.
func (p Policy) ttl(in Input, r Record) time.Duration {
	remaining := r.Remaining(in.Now)
	switch {
	case remaining == 0:
		return p.InactivityTTL
	case in.Event == EventStop:
		return max(remaining, p.InactivityTTL)
	default:
		return remaining
	}
}

func (p Policy) mutation(in Input, next Record, markTrial bool) *Mutation {
	next.Exists = true
	return &Mutation{
		ExpectedRev: in.Record.Rev,
		Record:      next,
		TTL:         p.ttl(in, next),
		Indexed:     next.Active(in.Now),
		MarkTrial:   markTrial,
	}
}

func (p Policy) invoice(chatID int64, requested BotStatus) *InvoiceRequest {
	return &InvoiceRequest{
		ChatID:    chatID,
		Requested: requested,
		Payload:   PaymentReference{ChatID: chatID, Requested: requested}.String(),
		Amount:    p.InvoiceAmount,
		Currency:  p.InvoiceCurrency,
	}
}

func validate(in Input) error {
	if in.ChatID == 0 {
		return fmt.Errorf("%w: missing chat id", ErrMalformedPayload)
	}
	if in.Now.IsZero() {
		return fmt.Errorf("%w: missing event time", ErrMalformedPayload)
	}
	if in.Event == EventPayment && !in.Requested.Valid() {
		return fmt.Errorf("%w: requested status %q", ErrMalformedPayload, in.Requested)
	}
	switch in.Event {
	case EventContact, EventStart, EventStop, EventTrial, EventPayment:
		return nil
	}
	return fmt.Errorf("%w: unknown event %q", ErrMalformedPayload, in.Event)
}
