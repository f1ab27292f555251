package subs

import (
	"strings"
	"time"
)

type State string

const (
	StateNoEntitlement State = "no_entitlement"
	StateTrialActive   State = "trial_active"
	StatePaidActive    State = "paid_active"
	StateStopped       State = "stopped"
	StateExpired       State = "expired"
)

// DeriveState reconstructs the lifecycle state of a record. State is never
// stored; it is a function of bot status, subscription end and plan.
func DeriveState(r Record, now time.Time) State {
	switch {
	case !r.Entitled(now) && r.SubscriptionEnd == 0:
		return StateNoEntitlement
	case !r.Entitled(now):
		return StateExpired
	case r.BotStatus != BotStatusRunning:
		return StateStopped
	case r.Plan == PlanPaid:
		return StatePaidActive
	default:
		return StateTrialActive
	}
}

// ResolveLanguage picks the stored language, then the platform locale, then English.
func ResolveLanguage(r Record, locale string) Language {
	if r.Language == LanguageRU || r.Language == LanguageEN {
		return r.Language
	}

	locale = strings.ToLower(locale)
	if len(locale) > 2 {
		locale = locale[:2]
	}
	if Language(locale) == LanguageRU {
		return LanguageRU
	}
	return LanguageEN
}
