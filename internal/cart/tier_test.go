package cart

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"techstore/internal/domain"
)

// mapTier is an in-test Tier with failure injection.
type mapTier struct {
	name string

	mu       sync.Mutex
	data     map[string][]byte
	saves    int
	loadErr  error
	saveErr  error
	lastSave int64
}

func newMapTier(name string) *mapTier {
	return &mapTier{name: name, data: map[string][]byte{}}
}

func (m *mapTier) Name() string { return m.name }

func (m *mapTier) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrMiss
	}
	return append([]byte(nil), v...), nil
}

func (m *mapTier) Save(_ context.Context, key string, version int64, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[key] = append([]byte(nil), payload...)
	m.lastSave = version
	return nil
}

func (m *mapTier) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mapTier) put(key string, payload string) {
	m.mu.Lock()
	m.data[key] = []byte(payload)
	m.mu.Unlock()
}

func (m *mapTier) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

func (m *mapTier) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func product(id string, price int64, stock int) domain.ProductRef {
	return domain.ProductRef{ID: id, NameEN: "Item " + id, Price: decimal.NewFromInt(price), Stock: stock}
}
