package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLimiter_SixthCallInWindowRejected(t *testing.T) {
	clock := newFakeClock()
	l := New(NewMemoryStore(), WithClock(clock.Now))
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if !l.Allow(ctx, "1.2.3.4", 5, time.Second) {
			t.Fatalf("call %d should be allowed", i)
		}
	}
	if l.Allow(ctx, "1.2.3.4", 5, time.Second) {
		t.Fatal("6th call within the window should be rejected")
	}
}

func TestLimiter_WindowResetsAfterExpiry(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	l := New(store, WithClock(clock.Now))
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		l.Allow(ctx, "user", 5, time.Second)
	}
	clock.Advance(time.Second + time.Millisecond)

	if !l.Allow(ctx, "user", 5, time.Second) {
		t.Fatal("first call after the window should be allowed")
	}
	e, ok, err := store.Peek(ctx, "user")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, e.Count)
}

func TestLimiter_BoundaryIsInclusive(t *testing.T) {
	clock := newFakeClock()
	l := New(NewMemoryStore(), WithClock(clock.Now))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		l.Allow(ctx, "k", 5, time.Second)
	}
	// Exactly at the reset time the window is still open.
	clock.Advance(time.Second)
	assert.False(t, l.Allow(ctx, "k", 5, time.Second))
}

func TestLimiter_OverLimitCallsStillCount(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	l := New(store, WithClock(clock.Now))
	ctx := context.Background()

	for i := 0; i < 9; i++ {
		l.Allow(ctx, "k", 2, time.Minute)
	}
	e, _, _ := store.Peek(ctx, "k")
	assert.Equal(t, 9, e.Count)
}

func TestLimiter_IdentitiesAreIndependent(t *testing.T) {
	clock := newFakeClock()
	l := New(NewMemoryStore(), WithClock(clock.Now))
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "a", 1, time.Minute))
	assert.False(t, l.Allow(ctx, "a", 1, time.Minute))
	assert.True(t, l.Allow(ctx, "b", 1, time.Minute))
}

func TestLimiter_RemainingTime(t *testing.T) {
	clock := newFakeClock()
	l := New(NewMemoryStore(), WithClock(clock.Now))
	ctx := context.Background()

	assert.Equal(t, time.Duration(0), l.RemainingTime(ctx, "nobody"))

	l.Allow(ctx, "k", 3, 10*time.Second)
	clock.Advance(4 * time.Second)
	assert.Equal(t, 6*time.Second, l.RemainingTime(ctx, "k"))

	clock.Advance(time.Minute)
	assert.Equal(t, time.Duration(0), l.RemainingTime(ctx, "k"))
}

func TestLimiter_ConcurrentHitsDoNotLoseUpdates(t *testing.T) {
	store := NewMemoryStore()
	l := New(store)
	ctx := context.Background()

	const workers = 50
	const perWorker = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if l.Allow(ctx, "shared", 100, time.Hour) {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	e, _, _ := store.Peek(ctx, "shared")
	assert.Equal(t, workers*perWorker, e.Count)
	assert.Equal(t, 100, allowed)
}

func TestLimiter_IsolatedInstances(t *testing.T) {
	ctx := context.Background()
	a := New(NewMemoryStore())
	b := New(NewMemoryStore())

	assert.True(t, a.Allow(ctx, "k", 1, time.Minute))
	assert.False(t, a.Allow(ctx, "k", 1, time.Minute))
	assert.True(t, b.Allow(ctx, "k", 1, time.Minute))
}

type failingStore struct{}

func (failingStore) Hit(context.Context, string, time.Duration, time.Time) (Entry, error) {
	return Entry{}, errors.New("down")
}

func (failingStore) Peek(context.Context, string) (Entry, bool, error) {
	return Entry{}, false, errors.New("down")
}

func TestLimiter_StoreFailureAllows(t *testing.T) {
	l := New(failingStore{})
	assert.True(t, l.Allow(context.Background(), "k", 1, time.Minute))
	assert.Equal(t, time.Duration(0), l.RemainingTime(context.Background(), "k"))
}

func TestMemoryStore_Sweep(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	ctx := context.Background()

	store.Hit(ctx, "old", time.Second, clock.Now())
	store.Hit(ctx, "fresh", time.Hour, clock.Now())
	clock.Advance(2 * time.Second)

	removed := store.Sweep(clock.Now())
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())

	_, ok, _ := store.Peek(ctx, "old")
	assert.False(t, ok)
}
