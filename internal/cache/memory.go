package cache

import (
	"context"
	"sync"
	"time"

	"devdash/internal/model"
)

// entry pairs a stored series with its creation time.
type entry struct {
	series    model.Series
	createdAt time.Time
}

// Memory is a process-local TTL store: a map under an RWMutex with the
// clock injected so expiry is testable without sleeping.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[Key]entry
}

// NewMemory creates a Memory store with the given TTL. A ttl <= 0
// falls back to DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[Key]entry, 64),
	}
}

// SetClock overrides the time source. Test hook.
func (m *Memory) SetClock(now func() time.Time) { m.now = now }

// Get returns the cached series if present and younger than the TTL.
func (m *Memory) Get(_ context.Context, key Key) (model.Series, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if m.now().Sub(e.createdAt) >= m.ttl {
		// Expired. Drop it so the map doesn't accumulate dead keys.
		m.mu.Lock()
		if cur, still := m.entries[key]; still && cur.createdAt.Equal(e.createdAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false
	}
	return e.series, true
}

// Set stores the series with a fresh creation timestamp.
func (m *Memory) Set(_ context.Context, key Key, series model.Series) {
	m.mu.Lock()
	m.entries[key] = entry{series: series, createdAt: m.now()}
	m.mu.Unlock()
}

// Len returns the number of live entries (expired ones included until
// their next Get).
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
