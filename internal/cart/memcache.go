package cart

import (
	"sync"
	"time"
)

// MemoryCache is the fast in-process tier. One instance is shared by the stores of a
// Registry; entries older than the freshness window read as misses.
type MemoryCache struct {
	freshness time.Duration
	now       func() time.Time

	mu      sync.RWMutex
	entries map[string]memEntry
}

type memEntry struct {
	rec Record
	at  time.Time
}

func NewMemoryCache(freshness time.Duration, now func() time.Time) *MemoryCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{freshness: freshness, now: now, entries: make(map[string]memEntry)}
}

func (m *MemoryCache) Get(key string) (Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok || m.now().Sub(e.at) > m.freshness {
		return Record{}, false
	}
	return Record{Version: e.rec.Version, SavedAt: e.rec.SavedAt, Items: cloneLines(e.rec.Items)}, true
}

func (m *MemoryCache) Put(key string, rec Record) {
	rec.Items = cloneLines(rec.Items)
	m.mu.Lock()
	m.entries[key] = memEntry{rec: rec, at: m.now()}
	m.mu.Unlock()
}

func (m *MemoryCache) Delete(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// Age reports how long ago key was cached.
func (m *MemoryCache) Age(key string) (time.Duration, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return 0, false
	}
	return m.now().Sub(e.at), true
}

// Prune drops entries past the freshness window and returns how many were removed.
func (m *MemoryCache) Prune() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	now := m.now()
	for k, e := range m.entries {
		if now.Sub(e.at) > m.freshness {
			delete(m.entries, k)
			n++
		}
	}
	return n
}
