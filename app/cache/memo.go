// Package cache memoizes slow lookups for a fixed time-to-live.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value    any
	storedAt time.Time
}

// Memo maps keys to the last fetched value. Entries are never evicted; a stale
// entry is simply refetched on the next read.
type Memo struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewMemo() *Memo {
	return &Memo{entries: make(map[string]entry), now: time.Now}
}

// WithClock replaces the time source. Tests only.
func (m *Memo) WithClock(now func() time.Time) *Memo {
	m.now = now
	return m
}

// GetCached returns the value stored under key when it is younger than ttl,
// otherwise it calls fetch and stores the result. Errors are returned as-is
// and leave any previous entry untouched.
func (m *Memo) GetCached(key string, ttl time.Duration, fetch func() (any, error)) (any, error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	now := m.now()
	m.mu.Unlock()

	if ok && now.Sub(e.storedAt) < ttl {
		return e.value, nil
	}

	value, err := fetch()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.entries[key] = entry{value: value, storedAt: m.now()}
	m.mu.Unlock()
	return value, nil
}

// Len reports how many keys have been stored.
func (m *Memo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
