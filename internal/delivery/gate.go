package delivery

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"zemo-bot/internal/metrics"
)

const (
	defaultPerRecipientLimit = 1
	defaultGlobalLimit       = 30
	defaultWindow            = time.Second
	defaultPollInterval      = 100 * time.Millisecond
)

// Gate is a dual-scope sliding-window admission gate. A caller is admitted
// once both its recipient window and the global window hold fewer calls than
// their limits; admission records the same timestamp in both windows.
type Gate struct {
	mu           sync.Mutex
	perRecipient int
	global       int
	window       time.Duration
	poll         time.Duration
	now          func() time.Time

	globalHits []time.Time
	// recipient id -> []time.Time, dropped once idle for longer than the window
	recipients *cache.Cache
}

type GateOption func(*Gate)

func WithLimits(perRecipient, global int) GateOption {
	return func(g *Gate) {
		if perRecipient > 0 {
			g.perRecipient = perRecipient
		}
		if global > 0 {
			g.global = global
		}
	}
}

func WithWindow(window time.Duration) GateOption {
	return func(g *Gate) {
		if window > 0 {
			g.window = window
		}
	}
}

func WithPollInterval(poll time.Duration) GateOption {
	return func(g *Gate) {
		if poll > 0 {
			g.poll = poll
		}
	}
}

func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		g.now = now
	}
}

func NewGate(opts ...GateOption) *Gate {
	g := &Gate{
		perRecipient: defaultPerRecipientLimit,
		global:       defaultGlobalLimit,
		window:       defaultWindow,
		poll:         defaultPollInterval,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}

	idle := max(2*g.window, time.Minute)
	g.recipients = cache.New(idle, 5*idle)

	return g
}

// Acquire blocks until the recipient may be sent another call. The context
// only bounds the wait; nothing is recorded when it is cancelled.
func (g *Gate) Acquire(ctx context.Context, recipientID int64) error {
	start := time.Now()
	defer func() {
		metrics.GateWaitSeconds.Observe(time.Since(start).Seconds())
	}()

	for {
		if g.tryAcquire(recipientID) {
			return nil
		}

		timer := time.NewTimer(g.poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (g *Gate) tryAcquire(recipientID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	key := strconv.FormatInt(recipientID, 10)

	var hits []time.Time
	if v, ok := g.recipients.Get(key); ok {
		hits = v.([]time.Time)
	}
	hits = evictBefore(hits, now, g.window)
	g.globalHits = evictBefore(g.globalHits, now, g.window)

	if len(hits) >= g.perRecipient || len(g.globalHits) >= g.global {
		g.recipients.Set(key, hits, cache.DefaultExpiration)
		return false
	}

	g.recipients.Set(key, append(hits, now), cache.DefaultExpiration)
	g.globalHits = append(g.globalHits, now)
	return true
}

// evictBefore drops timestamps that fell out of the trailing window. hits is
// ordered oldest first.
func evictBefore(hits []time.Time, now time.Time, window time.Duration) []time.Time {
	i := 0
	for i < len(hits) && now.Sub(hits[i]) >= window {
		i++
	}
	if i == len(hits) {
		return nil
	}
	return hits[i:]
}
