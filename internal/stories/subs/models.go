package subs

import (
	"time"
)

type BotStatus string

const (
	BotStatusRunning BotStatus = "running"
	BotStatusStopped BotStatus = "stopped"
)

func (s BotStatus) Valid() bool {
	return s == BotStatusRunning || s == BotStatusStopped
}

type Language string

const (
	LanguageRU Language = "ru"
	LanguageEN Language = "en"
)

// Plan records which grant produced the current entitlement.
type Plan string

const (
	PlanNone  Plan = ""
	PlanTrial Plan = "trial"
	PlanPaid  Plan = "paid"
)

// Record is the per-recipient subscription state as stored in the key-value store.
type Record struct {
	ChatID          int64
	BotStatus       BotStatus
	SubscriptionEnd int64 // unix seconds, 0 - never entitled
	Language        Language
	TrialUsed       bool
	Plan            Plan

	// Rev is the write counter used for compare-and-swap. Zero with Exists=false
	// means no record is stored.
	Rev    int64
	Exists bool
}

func (r Record) Entitled(now time.Time) bool {
	return r.SubscriptionEnd > now.Unix()
}

// Active is the ActiveRecipientIndex membership predicate.
func (r Record) Active(now time.Time) bool {
	return r.BotStatus == BotStatusRunning && r.Entitled(now)
}

func (r Record) EndTime() time.Time {
	return time.Unix(r.SubscriptionEnd, 0).UTC()
}

func (r Record) Remaining(now time.Time) time.Duration {
	if !r.Entitled(now) {
		return 0
	}
	return time.Duration(r.SubscriptionEnd-now.Unix()) * time.Second
}

// Mutation is one all-or-nothing write: record fields, key TTL, index
// membership and the persistent trial marker.
type Mutation struct {
	ExpectedRev int64
	Record      Record
	TTL         time.Duration
	Indexed     bool
	MarkTrial   bool
}

type Event string

const (
	EventContact Event = "contact"
	EventStart   Event = "start"
	EventStop    Event = "stop"
	EventTrial   Event = "trial"
	EventPayment Event = "payment"
)

type Outcome string

const (
	OutcomeWelcomed         Outcome = "welcomed"
	OutcomeActivated        Outcome = "activated"
	OutcomePurchaseRequired Outcome = "purchase_required"
	OutcomeStopped          Outcome = "stopped"
	OutcomeStoppedExpired   Outcome = "stopped_expired"
	OutcomeTrialUnavailable Outcome = "trial_unavailable"
	OutcomeTrialConsumed    Outcome = "trial_consumed"
	OutcomeTrialGranted     Outcome = "trial_granted"
	OutcomePaymentApplied   Outcome = "payment_applied"
)

// InvoiceRequest describes the purchase prompt to issue. Requested is the bot
// status applied once the payment completes.
type InvoiceRequest struct {
	ChatID    int64
	Requested BotStatus
	Payload   string
	Amount    int
	Currency  string
}

// Reply is what the routing layer renders for an event.
type Reply struct {
	Outcome  Outcome
	Language Language
	TextKeys []string
	Params   map[string]string
	// Running drives the start/stop button label.
	Running bool
	Invoice *InvoiceRequest
	// End is the entitlement end after the event, zero when never entitled.
	End time.Time
}
