package redis

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// memoryCache is the in-process fallback used when REDIS_ADDR is unset and
// by tests. Same contract as the redis-backed implementation.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	raw       []byte
	expiresAt time.Time
}

func NewMemoryCache() Cache {
	return &memoryCache{entries: map[string]memoryEntry{}}
}

func (m *memoryCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if ok && !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(m.entries, key)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(entry.raw, dest); err != nil {
		return false, nil
	}
	return true, nil
}

func (m *memoryCache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	entry := memoryEntry{raw: raw}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

func (m *memoryCache) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	m.mu.Unlock()
	return nil
}

func (m *memoryCache) DelByPrefix(ctx context.Context, prefixes ...string) error {
	m.mu.Lock()
	for key := range m.entries {
		for _, prefix := range prefixes {
			if prefix != "" && strings.HasPrefix(key, prefix) {
				delete(m.entries, key)
				break
			}
		}
	}
	m.mu.Unlock()
	return nil
}

func (m *memoryCache) Close() error { return nil }
