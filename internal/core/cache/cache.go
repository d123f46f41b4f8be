// Package cache provides a process-local memo for probe results. Entries
// expire lazily on read by wall-clock comparison; there is no background
// sweep. Results are cheap to recompute and TTLs are short, so nothing here
// survives the process.
package cache

import (
	"sync"
	"time"
)

// Store is the contract adapters consult before probing.
type Store interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
}

type entry struct {
	value     any
	expiresAt time.Time
}

// Memory is an in-process Store guarded by a mutex.
type Memory struct {
	mu    sync.Mutex
	items map[string]entry

	// Clock overrides time.Now in tests.
	Clock func() time.Time
}

// NewMemory returns an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]entry)}
}

// Get returns the value for key if it has not expired. Expired entries are
// removed on read.
func (m *Memory) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok {
		return nil, false
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.items, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl. A non-positive ttl stores nothing.
func (m *Memory) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = entry{value: value, expiresAt: m.now().Add(ttl)}
}

// Len reports the number of entries, including not-yet-collected expired ones.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memory) now() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now()
}
