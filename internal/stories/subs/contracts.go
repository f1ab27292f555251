package subs

import (
	"context"
)

type Storage interface {
	// GetRecord never returns nil on success. A missing record comes back with
	// Exists=false and TrialUsed taken from the persistent trial marker.
	GetRecord(ctx context.Context, chatID int64) (*Record, error)
	// ApplyMutation writes the record, its TTL, the trial marker and the index
	// membership atomically, or returns ErrConflict when the stored revision
	// differs from m.ExpectedRev.
	ApplyMutation(ctx context.Context, chatID int64, m Mutation) error
}
