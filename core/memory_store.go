package core

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process implementation of Memory. It backs
// InterpretationCache by default; RedisMemory is used instead when
// MemoryConfig.Provider is "redis".
type MemoryStore struct {
	mu     sync.RWMutex
	store  map[string]memoryEntry
	logger Logger
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		store:  make(map[string]memoryEntry),
		logger: &NoOpLogger{},
	}
}

// SetLogger configures the logger for this memory store. The logger is
// wrapped with component "framework/core" when it supports WithComponent.
func (m *MemoryStore) SetLogger(logger Logger) {
	if logger == nil {
		m.logger = nil
		return
	}
	if cal, ok := logger.(ComponentAwareLogger); ok {
		m.logger = cal.WithComponent("framework/core")
	} else {
		m.logger = logger
	}
}

// Get retrieves a value from memory. A missing or expired key returns ("", nil).
func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, exists := m.store[key]
	if !exists {
		if m.logger != nil {
			m.logger.Debug("cache miss", map[string]interface{}{"key": key})
		}
		return "", nil
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		if m.logger != nil {
			m.logger.Debug("cache entry expired", map[string]interface{}{"key": key})
		}
		return "", nil
	}

	return entry.value, nil
}

// Set stores a value in memory with optional TTL. A zero TTL never expires.
func (m *MemoryStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	m.store[key] = entry

	if m.logger != nil {
		m.logger.Debug("cache set", map[string]interface{}{"key": key, "ttl": ttl.String()})
	}
	return nil
}

// Delete removes a value from memory.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key)
	return nil
}

// Exists checks if a non-expired key is present in memory.
func (m *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, exists := m.store[key]
	if !exists {
		return false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		return false, nil
	}
	return true, nil
}
