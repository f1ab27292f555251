package storage

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zemo-bot/internal/stories/subs"
)

func newTestRecordStore(t *testing.T) (*RecordStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewRecordStore(rdb), mr
}

func TestRecordStoreMissingRecord(t *testing.T) {
	store, _ := newTestRecordStore(t)

	rec, err := store.GetRecord(context.Background(), 77)
	require.NoError(t, err)

	assert.False(t, rec.Exists)
	assert.Equal(t, int64(77), rec.ChatID)
	assert.Equal(t, subs.BotStatusStopped, rec.BotStatus)
	assert.Zero(t, rec.Rev)
	assert.False(t, rec.TrialUsed)
}

func TestRecordStoreApplyMutation(t *testing.T) {
	store, mr := newTestRecordStore(t)
	ctx := context.Background()
	end := time.Now().Add(48 * time.Hour).Unix()

	err := store.ApplyMutation(ctx, 77, subs.Mutation{
		ExpectedRev: 0,
		Record: subs.Record{
			BotStatus:       subs.BotStatusRunning,
			SubscriptionEnd: end,
			Language:        subs.LanguageRU,
			TrialUsed:       true,
			Plan:            subs.PlanTrial,
		},
		TTL:       48 * time.Hour,
		Indexed:   true,
		MarkTrial: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "running", mr.HGet("user:77", "bot_status"))
	assert.Equal(t, strconv.FormatInt(end, 10), mr.HGet("user:77", "subscription_end"))
	assert.Equal(t, "1", mr.HGet("user:77", "rev"))
	assert.Equal(t, 48*time.Hour, mr.TTL("user:77"))
	assert.True(t, mr.Exists("trial_used:77"))
	assert.Zero(t, mr.TTL("trial_used:77"), "trial marker never expires")

	members, err := mr.Members("subscribed_users")
	require.NoError(t, err)
	assert.Equal(t, []string{"77"}, members)

	rec, err := store.GetRecord(ctx, 77)
	require.NoError(t, err)
	assert.True(t, rec.Exists)
	assert.Equal(t, int64(1), rec.Rev)
	assert.Equal(t, end, rec.SubscriptionEnd)
	assert.Equal(t, subs.PlanTrial, rec.Plan)
	assert.Equal(t, subs.LanguageRU, rec.Language)
	assert.True(t, rec.TrialUsed)
}

func TestRecordStoreRejectsStaleRevision(t *testing.T) {
	store, mr := newTestRecordStore(t)
	ctx := context.Background()

	m := subs.Mutation{
		Record: subs.Record{BotStatus: subs.BotStatusStopped},
		TTL:    time.Hour,
	}
	require.NoError(t, store.ApplyMutation(ctx, 9, m))

	m.Record.BotStatus = subs.BotStatusRunning
	m.Indexed = true
	err := store.ApplyMutation(ctx, 9, m)
	assert.ErrorIs(t, err, subs.ErrConflict)

	assert.Equal(t, "stopped", mr.HGet("user:9", "bot_status"))
	assert.False(t, mr.Exists("subscribed_users"), "rejected write leaves the index untouched")
}

func TestRecordStoreLegacyHashWithoutRev(t *testing.T) {
	store, mr := newTestRecordStore(t)
	ctx := context.Background()

	mr.HSet("user:12", "bot_status", "running", "subscription_end", "1700000000", "language", "en")

	rec, err := store.GetRecord(ctx, 12)
	require.NoError(t, err)
	assert.True(t, rec.Exists)
	assert.Zero(t, rec.Rev)
	assert.Equal(t, subs.BotStatusRunning, rec.BotStatus)

	err = store.ApplyMutation(ctx, 12, subs.Mutation{
		ExpectedRev: rec.Rev,
		Record:      subs.Record{BotStatus: subs.BotStatusStopped, Language: subs.LanguageEN},
		TTL:         time.Hour,
	})
	require.NoError(t, err)
	assert.Equal(t, "1", mr.HGet("user:12", "rev"))
}

func TestRecordStorePurgeKeepsTrialMarker(t *testing.T) {
	store, mr := newTestRecordStore(t)
	ctx := context.Background()

	require.NoError(t, store.ApplyMutation(ctx, 5, subs.Mutation{
		Record:    subs.Record{BotStatus: subs.BotStatusStopped, TrialUsed: true, SubscriptionEnd: time.Now().Add(time.Hour).Unix()},
		TTL:       time.Hour,
		MarkTrial: true,
	}))

	mr.FastForward(2 * time.Hour)
	require.False(t, mr.Exists("user:5"))

	rec, err := store.GetRecord(ctx, 5)
	require.NoError(t, err)
	assert.False(t, rec.Exists)
	assert.True(t, rec.TrialUsed)
}

func TestRecordStoreEvictIfInactive(t *testing.T) {
	store, mr := newTestRecordStore(t)
	ctx := context.Background()
	now := time.Now()

	mr.HSet("user:1", "bot_status", "running", "subscription_end", strconv.FormatInt(now.Add(time.Hour).Unix(), 10))
	mr.HSet("user:2", "bot_status", "running", "subscription_end", strconv.FormatInt(now.Add(-time.Hour).Unix(), 10))
	mr.HSet("user:3", "bot_status", "stopped", "subscription_end", strconv.FormatInt(now.Add(time.Hour).Unix(), 10))
	mr.SAdd("subscribed_users", "1", "2", "3", "4")

	tests := []struct {
		chatID int64
		want   bool
	}{
		{chatID: 1, want: false},
		{chatID: 2, want: true},
		{chatID: 3, want: true},
		{chatID: 4, want: true},
	}
	for _, tt := range tests {
		evicted, err := store.EvictIfInactive(ctx, tt.chatID, now)
		require.NoError(t, err)
		assert.Equal(t, tt.want, evicted, "chat %d", tt.chatID)
	}

	ids, err := store.Members(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
}

func TestRecordStoreUnavailable(t *testing.T) {
	store, mr := newTestRecordStore(t)
	mr.Close()

	_, err := store.GetRecord(context.Background(), 1)
	assert.ErrorIs(t, err, subs.ErrStoreUnavailable)

	err = store.ApplyMutation(context.Background(), 1, subs.Mutation{TTL: time.Second})
	assert.ErrorIs(t, err, subs.ErrStoreUnavailable)
}

// The index must match the record predicate after every event, including when
// the same recipient is mutated from several goroutines.
func TestIndexInvariantWithService(t *testing.T) {
	store, mr := newTestRecordStore(t)
	ctx := context.Background()
	svc := subs.NewService(store, subs.DefaultPolicy(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	const id int64 = 314

	_, err := svc.OnTrialRequest(ctx, id)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = svc.OnStart(ctx, id, "en")
			} else {
				_, _ = svc.OnStop(ctx, id)
			}
		}()
	}
	wg.Wait()

	_, err = svc.OnPaymentCompleted(ctx, id, subs.BotStatusRunning)
	require.NoError(t, err)

	rec, err := store.GetRecord(ctx, id)
	require.NoError(t, err)
	indexed, err := mr.IsMember("subscribed_users", "314")
	require.NoError(t, err)

	assert.Equal(t, rec.Active(time.Now()), indexed)
	assert.True(t, indexed)
	assert.Equal(t, "running", mr.HGet("user:314", "bot_status"))
}
