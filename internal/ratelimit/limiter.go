package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Entry is the fixed-window counter state for one identity.
type Entry struct {
	Count     int
	ResetTime time.Time
}

// Store holds the identity → Entry mapping. Hit must perform the
// read-increment-write sequence atomically for a given identity.
type Store interface {
	// Hit records one call for identity. If no entry exists or now is past
	// the entry's ResetTime, the window restarts with Count=1 and
	// ResetTime=now+window. Otherwise Count is incremented. The updated
	// entry is returned.
	Hit(ctx context.Context, identity string, window time.Duration, now time.Time) (Entry, error)

	// Peek returns the current entry without modifying it.
	Peek(ctx context.Context, identity string) (Entry, bool, error)
}

// Limiter is a fixed-window counter keyed by caller identity.
type Limiter struct {
	store Store
	now   func() time.Time
	log   *zap.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithLogger sets the logger used for store failures.
func WithLogger(log *zap.Logger) Option {
	return func(l *Limiter) {
		if log != nil {
			l.log = log
		}
	}
}

// New creates a Limiter backed by store.
func New(store Store, opts ...Option) *Limiter {
	l := &Limiter{store: store, now: time.Now, log: zap.NewNop()}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Allow records a call for identity and reports whether it is within
// maxAttempts for the current window. Calls over the limit still count.
// A store failure is logged and the call is allowed.
func (l *Limiter) Allow(ctx context.Context, identity string, maxAttempts int, window time.Duration) bool {
	e, err := l.store.Hit(ctx, identity, window, l.now())
	if err != nil {
		l.log.Warn("rate limit store unavailable, allowing call",
			zap.String("identity", identity), zap.Error(err))
		return true
	}
	return e.Count <= maxAttempts
}

// RemainingTime returns how long until identity's window resets, or zero
// if there is no active window.
func (l *Limiter) RemainingTime(ctx context.Context, identity string) time.Duration {
	e, ok, err := l.store.Peek(ctx, identity)
	if err != nil || !ok {
		return 0
	}
	if d := e.ResetTime.Sub(l.now()); d > 0 {
		return d
	}
	return 0
}
