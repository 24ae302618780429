package cache

import (
	"context"
	"sync"
	"time"

	"techstore/internal/cart"
)

// MemoryTier stands in for Redis when it is not configured. Entries expire after ttl.
type MemoryTier struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	items map[string]memItem
}

type memItem struct {
	payload []byte
	expires time.Time
}

func NewMemoryTier(ttl time.Duration, now func() time.Time) *MemoryTier {
	if now == nil {
		now = time.Now
	}
	return &MemoryTier{ttl: ttl, now: now, items: make(map[string]memItem)}
}

func (m *MemoryTier) Name() string { return "session.memory" }

func (m *MemoryTier) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[key]
	if !ok {
		return nil, cart.ErrMiss
	}
	if m.ttl > 0 && m.now().After(it.expires) {
		delete(m.items, key)
		return nil, cart.ErrMiss
	}
	return append([]byte(nil), it.payload...), nil
}

func (m *MemoryTier) Save(_ context.Context, key string, _ int64, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = memItem{payload: append([]byte(nil), payload...), expires: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryTier) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
