package session

import (
	"context"
	"encoding/json"
	"maps"
	"sync"
	"time"
)

type memoryItem struct {
	data    map[string]json.RawMessage
	expires time.Time
}

type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]memoryItem{}, now: time.Now}
}

func (m *MemoryStore) Load(_ context.Context, id string) (map[string]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	if m.now().After(it.expires) {
		delete(m.items, id)
		return nil, nil
	}
	return maps.Clone(it.data), nil
}

func (m *MemoryStore) Save(_ context.Context, id string, data map[string]json.RawMessage, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[id] = memoryItem{data: maps.Clone(data), expires: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, id)
	return nil
}
