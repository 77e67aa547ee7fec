package store

import (
	"context"
	"sync"
	"time"

	"github.com/tsubute/arcache/internal/clock"
	"github.com/tsubute/arcache/internal/model"
)

// Memory is a map-backed Store for tests and dry runs.
// It round-trips entries through the shared envelope codec so its
// behavior (including compression) matches the persistent backends.
type Memory struct {
	mu      sync.Mutex
	entries map[string][]byte
	closed  bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

// Exists implements Store.
func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClosed
	}
	_, ok := m.entries[key]
	return ok, nil
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) (*model.CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	data, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return decodeEntry(data)
}

// Put implements Store. The single mutex makes put-if-absent atomic.
func (m *Memory) Put(_ context.Context, entry *model.CacheEntry) (bool, error) {
	data, err := encodeEntry(entry)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClosed
	}

	if existing, ok := m.entries[entry.Key]; ok {
		decoded, err := decodeEntry(existing)
		if err != nil {
			return false, err
		}
		if !samePayload(decoded, entry) {
			return false, ErrConflict
		}
		return false, nil
	}

	m.entries[entry.Key] = data
	return true, nil
}

// Evict implements Store.
func (m *Memory) Evict(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.entries, key)
	return nil
}

// Sweep implements Store.
func (m *Memory) Sweep(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}

	evicted := 0
	for key, data := range m.entries {
		entry, err := decodeEntry(data)
		if err != nil {
			return evicted, err
		}
		if clock.Expired(entry.FetchedAt, entry.TTL, now) {
			delete(m.entries, key)
			evicted++
		}
	}
	return evicted, nil
}

// Close implements Store.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.entries = nil
	return nil
}

// Len returns the number of stored entries. Test helper.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
