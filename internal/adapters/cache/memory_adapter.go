package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/routestops/routestops/internal/domain/providers"
)

const defaultSweepInterval = 5 * time.Minute

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryAdapter implements the CacheProvider interface with an in-process
// TTL map. Expired entries are dropped on read and swept periodically so the
// map stays bounded by live request fingerprints. The clock is injectable for
// deterministic tests.
type MemoryAdapter struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time

	lastSweep     time.Time
	sweepInterval time.Duration
}

// NewMemoryAdapter creates a new in-memory cache adapter
func NewMemoryAdapter() *MemoryAdapter {
	return NewMemoryAdapterWithClock(time.Now)
}

// NewMemoryAdapterWithClock creates an in-memory cache adapter with a custom
// clock (used for tests)
func NewMemoryAdapterWithClock(now func() time.Time) *MemoryAdapter {
	return &MemoryAdapter{
		entries:       make(map[string]memoryEntry),
		now:           now,
		lastSweep:     now(),
		sweepInterval: defaultSweepInterval,
	}
}

var _ providers.CacheProvider = (*MemoryAdapter)(nil)

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	a.mu.RLock()
	entry, ok := a.entries[key]
	a.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("key not found: %s", key)
	}
	if a.now().After(entry.expiresAt) {
		a.mu.Lock()
		delete(a.entries, key)
		a.mu.Unlock()
		return nil, fmt.Errorf("key not found: %s", key)
	}
	return entry.value, nil
}

// Set stores a value in cache with expiration
func (a *MemoryAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	now := a.now()

	a.mu.Lock()
	defer a.mu.Unlock()

	a.entries[key] = memoryEntry{
		value:     value,
		expiresAt: now.Add(time.Duration(expirationSeconds) * time.Second),
	}

	if now.Sub(a.lastSweep) >= a.sweepInterval {
		for k, e := range a.entries {
			if now.After(e.expiresAt) {
				delete(a.entries, k)
			}
		}
		a.lastSweep = now
	}

	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(ctx context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.entries, key)
	return nil
}

// Exists checks if a key exists in cache
func (a *MemoryAdapter) Exists(ctx context.Context, key string) (bool, error) {
	a.mu.RLock()
	entry, ok := a.entries[key]
	a.mu.RUnlock()

	if !ok || a.now().After(entry.expiresAt) {
		return false, nil
	}
	return true, nil
}

// Len returns the number of stored entries, expired or not.
func (a *MemoryAdapter) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.entries)
}
