package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store guarded by a mutex.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

func (m *MemoryStore) Hit(_ context.Context, identity string, window time.Duration, now time.Time) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[identity]
	if !ok || now.After(e.ResetTime) {
		e = &Entry{Count: 1, ResetTime: now.Add(window)}
		m.entries[identity] = e
		return *e, nil
	}
	e.Count++
	return *e, nil
}

func (m *MemoryStore) Peek(_ context.Context, identity string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[identity]
	if !ok {
		return Entry{}, false, nil
	}
	return *e, true, nil
}

// Sweep drops entries whose window ended before now and returns how many
// were removed. Expired entries reset on their next Hit anyway, so this
// only bounds memory.
func (m *MemoryStore) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.entries {
		if now.After(e.ResetTime) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked identities.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// StartSweeper runs Sweep every interval until ctx is done.
func (m *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				m.Sweep(now)
			}
		}
	}()
}
