package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"zemo-bot/internal/stories/subs"
)

const (
	fieldBotStatus       = "bot_status"
	fieldSubscriptionEnd = "subscription_end"
	fieldLanguage        = "language"
	fieldTrialUsed       = "trial_used"
	fieldPlan            = "plan"
	fieldRev             = "rev"
)

// KEYS: record, trial marker, index.
// ARGV: expected rev, ttl seconds, indexed, mark trial, member, field/value pairs...
// Returns the new revision, or 0 when the stored revision differs.
var applyScript = goredis.NewScript(`
local rev = tonumber(redis.call('HGET', KEYS[1], 'rev') or '0')
if rev ~= tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'rev', rev + 1, unpack(ARGV, 6))
redis.call('EXPIRE', KEYS[1], ARGV[2])
if ARGV[4] == '1' then
  redis.call('SET', KEYS[2], 'true')
end
if ARGV[3] == '1' then
  redis.call('SADD', KEYS[3], ARGV[5])
else
  redis.call('SREM', KEYS[3], ARGV[5])
end
return rev + 1
`)

// KEYS: record, index. ARGV: member, now (unix seconds).
// Removes the member when its record no longer satisfies the index predicate.
var evictScript = goredis.NewScript(`
local status = redis.call('HGET', KEYS[1], 'bot_status')
local ends = tonumber(redis.call('HGET', KEYS[1], 'subscription_end') or '0') or 0
if status == 'running' and ends > tonumber(ARGV[2]) then
  return 0
end
return redis.call('SREM', KEYS[2], ARGV[1])
`)

// RecordStore keeps subscription records as Redis hashes and the active
// recipient index as a Redis set.
type RecordStore struct {
	rdb          goredis.UniversalClient
	recordPrefix string
	trialPrefix  string
	indexKey     string
}

type RecordStoreOption func(*RecordStore)

func WithKeys(recordPrefix, trialPrefix, indexKey string) RecordStoreOption {
	return func(s *RecordStore) {
		s.recordPrefix = recordPrefix
		s.trialPrefix = trialPrefix
		s.indexKey = indexKey
	}
}

func NewRecordStore(rdb goredis.UniversalClient, opts ...RecordStoreOption) *RecordStore {
	s := &RecordStore{
		rdb:          rdb,
		recordPrefix: "user:",
		trialPrefix:  "trial_used:",
		indexKey:     "subscribed_users",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RecordStore) recordKey(chatID int64) string {
	return s.recordPrefix + strconv.FormatInt(chatID, 10)
}

func (s *RecordStore) trialKey(chatID int64) string {
	return s.trialPrefix + strconv.FormatInt(chatID, 10)
}

func (s *RecordStore) GetRecord(ctx context.Context, chatID int64) (*subs.Record, error) {
	var (
		hash  *goredis.MapStringStringCmd
		trial *goredis.StringCmd
	)
	_, err := s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		hash = p.HGetAll(ctx, s.recordKey(chatID))
		trial = p.Get(ctx, s.trialKey(chatID))
		return nil
	})
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, unavailable("get record", err)
	}

	rec, err := recordFromHash(chatID, hash.Val())
	if err != nil {
		return nil, err
	}
	if trial.Val() == "true" {
		rec.TrialUsed = true
	}

	return rec, nil
}

func (s *RecordStore) ApplyMutation(ctx context.Context, chatID int64, m subs.Mutation) error {
	ttl := max(int64(m.TTL/time.Second), 1)

	args := []any{
		m.ExpectedRev,
		ttl,
		boolFlag(m.Indexed),
		boolFlag(m.MarkTrial),
		chatID,
	}
	args = append(args, hashFields(m.Record)...)

	keys := []string{s.recordKey(chatID), s.trialKey(chatID), s.indexKey}
	rev, err := applyScript.Run(ctx, s.rdb, keys, args...).Int64()
	if err != nil {
		return unavailable("apply mutation", err)
	}
	if rev == 0 {
		return fmt.Errorf("record %d at rev %d: %w", chatID, m.ExpectedRev, subs.ErrConflict)
	}

	return nil
}

// Members lists the active recipient index. Unparseable members are skipped.
func (s *RecordStore) Members(ctx context.Context) ([]int64, error) {
	vals, err := s.rdb.SMembers(ctx, s.indexKey).Result()
	if err != nil {
		return nil, unavailable("list index", err)
	}

	ids := make([]int64, 0, len(vals))
	for _, v := range vals {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// EvictIfInactive removes chatID from the index when its record is missing,
// stopped or lapsed at now. It reports whether the member was removed.
func (s *RecordStore) EvictIfInactive(ctx context.Context, chatID int64, now time.Time) (bool, error) {
	keys := []string{s.recordKey(chatID), s.indexKey}
	n, err := evictScript.Run(ctx, s.rdb, keys, chatID, now.Unix()).Int64()
	if err != nil {
		return false, unavailable("evict from index", err)
	}
	return n == 1, nil
}

// Ping is used by the readiness probe.
func (s *RecordStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func recordFromHash(chatID int64, h map[string]string) (*subs.Record, error) {
	rec := &subs.Record{
		ChatID:    chatID,
		BotStatus: subs.BotStatusStopped,
	}
	if len(h) == 0 {
		return rec, nil
	}

	rec.Exists = true
	if v := subs.BotStatus(h[fieldBotStatus]); v.Valid() {
		rec.BotStatus = v
	}
	rec.Language = subs.Language(h[fieldLanguage])
	rec.Plan = subs.Plan(h[fieldPlan])
	rec.TrialUsed = h[fieldTrialUsed] == "true"

	var err error
	if v := h[fieldSubscriptionEnd]; v != "" {
		if rec.SubscriptionEnd, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("record %d: %w: subscription_end %q", chatID, subs.ErrMalformedPayload, v)
		}
	}
	if v := h[fieldRev]; v != "" {
		if rec.Rev, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("record %d: %w: rev %q", chatID, subs.ErrMalformedPayload, v)
		}
	}

	return rec, nil
}

func hashFields(r subs.Record) []any {
	return []any{
		fieldBotStatus, string(r.BotStatus),
		fieldSubscriptionEnd, r.SubscriptionEnd,
		fieldLanguage, string(r.Language),
		fieldTrialUsed, strconv.FormatBool(r.TrialUsed),
		fieldPlan, string(r.Plan),
	}
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, subs.ErrStoreUnavailable, err)
}
