package llmcache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	response  string
	createdAt time.Time
	expiresAt time.Time
}

// MemoryBackend is the in-process cache backend. It is the fallback when the
// durable backend is unavailable, and the sole backend in tests.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	maxSize int
	now     func() time.Time
}

func NewMemoryBackend(maxSize int) *MemoryBackend {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &MemoryBackend{
		entries: make(map[string]memoryEntry),
		maxSize: maxSize,
		now:     time.Now,
	}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return "", false, nil
	}
	if m.now().After(entry.expiresAt) {
		delete(m.entries, key)
		return "", false, nil
	}
	return entry.response, true, nil
}

func (m *MemoryBackend) Set(_ context.Context, key, response string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxSize {
		m.evictOldest()
	}
	// Entries are replaced wholesale, never mutated in place.
	m.entries[key] = memoryEntry{
		response:  response,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	return nil
}

func (m *MemoryBackend) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoryEntry)
	return nil
}

func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// evictOldest removes the single oldest entry; called with the lock held.
func (m *MemoryBackend) evictOldest() {
	var (
		oldestKey string
		oldestAt  time.Time
	)
	for key, entry := range m.entries {
		if oldestKey == "" || entry.createdAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.createdAt
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}
