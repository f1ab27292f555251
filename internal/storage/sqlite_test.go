package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zemo-bot/internal/stories/payment"
	"zemo-bot/internal/stories/profiles"
	"zemo-bot/internal/stories/subs"
)

func newTestStorage(t *testing.T) *storageImpl {
	t.Helper()

	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s := New(db)
	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.Migrate(context.Background()), "migrations are idempotent")
	return s
}

func TestCreatePaymentIgnoresDuplicateCharge(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	p := payment.Payment{
		ID:              "a",
		ChatID:          42,
		ChargeID:        "tg-charge-1",
		Amount:          10000,
		Currency:        "XTR",
		Payload:         "toggle_bot_status:42:running",
		RequestedStatus: subs.BotStatusRunning,
	}

	created, err := s.CreatePayment(ctx, p)
	require.NoError(t, err)
	assert.True(t, created)

	p.ID = "b"
	created, err = s.CreatePayment(ctx, p)
	require.NoError(t, err)
	assert.False(t, created)

	chatID := int64(42)
	list, err := s.ListPayments(ctx, payment.ListCriteria{ChatID: &chatID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, subs.BotStatusRunning, list[0].RequestedStatus)
	assert.Equal(t, 10000, list[0].Amount)

	require.NoError(t, s.DeletePayment(ctx, "tg-charge-1"))
	created, err = s.CreatePayment(ctx, p)
	require.NoError(t, err)
	assert.True(t, created, "charge can be recorded again after revert")
}

func TestUpsertProfileKeepsCreatedAt(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	first := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return first }

	saved, err := s.UpsertProfile(ctx, profiles.Profile{
		ChatID:    7,
		City:      "Batumi",
		Districts: []string{"Old Town"},
		PriceFrom: 100,
		PriceTo:   500,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Old Town"}, saved.Districts)
	assert.True(t, saved.CreatedAt.Equal(first))

	second := first.Add(24 * time.Hour)
	s.now = func() time.Time { return second }

	saved, err = s.UpsertProfile(ctx, profiles.Profile{
		ChatID:    7,
		City:      "Tbilisi",
		Districts: []string{"Vake", "Saburtalo"},
		OwnAds:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Tbilisi", saved.City)
	assert.Equal(t, []string{"Vake", "Saburtalo"}, saved.Districts)
	assert.True(t, saved.OwnAds)
	assert.Zero(t, saved.PriceTo)
	assert.True(t, saved.CreatedAt.Equal(first), "created_at is set on insert only")
	assert.True(t, saved.UpdatedAt.Equal(second))
}

func TestGetProfileMissing(t *testing.T) {
	s := newTestStorage(t)

	p, err := s.GetProfile(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestGetPaymentStats(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, day := range []int{0, 5, 6} {
		s.now = func() time.Time { return base.AddDate(0, 0, day) }
		_, err := s.CreatePayment(ctx, payment.Payment{
			ID:              fmt.Sprintf("p%d", i),
			ChatID:          int64(i + 1),
			ChargeID:        fmt.Sprintf("charge-%d", i),
			Amount:          10000,
			Currency:        "XTR",
			Payload:         "toggle_bot_status:1:running",
			RequestedStatus: subs.BotStatusRunning,
		})
		require.NoError(t, err)
	}

	stats, err := s.GetPaymentStats(ctx, base.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, 20000, stats.Amount)

	stats, err = s.GetPaymentStats(ctx, base.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Zero(t, stats.Count)
	assert.Zero(t, stats.Amount)
}
