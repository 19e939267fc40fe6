package memory

import (
	"context"
	"sync"
	"time"

	"github.com/chevrutah247/crownheightsgroups-sub001/internal/storage"
)

type record struct {
	value    []byte
	deadline time.Time
}

// MemoryStore is a process-local storage.Store used in tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]record
}

func New() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]record),
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	rec, ok := m.records[key]
	m.mu.RUnlock()

	if !ok {
		return nil, storage.ErrNotFound
	}

	if !rec.deadline.IsZero() && !rec.deadline.After(time.Now()) {
		m.mu.Lock()
		delete(m.records, key)
		m.mu.Unlock()

		return nil, storage.ErrNotFound
	}

	val := make([]byte, len(rec.value))
	copy(val, rec.value)

	return val, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var deadline time.Time
	if ttl > 0 {
		deadline = time.Now().Add(ttl)
	}

	val := make([]byte, len(value))
	copy(val, value)

	m.mu.Lock()
	m.records[key] = record{value: val, deadline: deadline}
	m.mu.Unlock()

	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.records, key)
	m.mu.Unlock()

	return nil
}

func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}
