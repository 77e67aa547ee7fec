package pipeline

import "sync"

// keyedMutex provides per-key mutual exclusion for store writes.
// Two workers discovering the same content-derived key concurrently is
// an expected occurrence (duplicate content across descriptors), and
// serializing only the colliding key keeps unrelated writes parallel.
//
// The lock table is batch-scoped: it lives as long as one Run call, so
// no eviction of stale locks is needed.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// newKeyedMutex creates an empty lock table.
func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use, and returns
// the matching unlock function.
func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
