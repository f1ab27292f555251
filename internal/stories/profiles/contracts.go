package profiles

import "context"

type Storage interface {
	// UpsertProfile inserts or replaces the profile of p.ChatID. created_at is
	// only set on insert.
	UpsertProfile(ctx context.Context, p Profile) (*Profile, error)
	GetProfile(ctx context.Context, chatID int64) (*Profile, error)
}
