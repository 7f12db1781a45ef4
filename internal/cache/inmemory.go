package cache

import (
	"context"
	"sync"
)

// memoryStore implements Store on a plain map. It stands in for the
// persistent tier in tests and when no redis is configured, in which case
// the "persistent" tier simply shares the process lifetime.
type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore() Store {
	return &memoryStore{entries: make(map[string]Entry)}
}

func (m *memoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok, nil
}

func (m *memoryStore) Set(_ context.Context, key string, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = e
	return nil
}

func (m *memoryStore) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *memoryStore) List(_ context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out, nil
}
