package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation.
//
// Entries record the time they were stored; expiry is decided at read time
// by comparing entry age against the current TTL. Changing the TTL with
// SetTTL therefore applies to existing entries without re-stamping them.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration

	// now is replaceable for tests.
	now func() time.Time
}

type memoryEntry struct {
	value    []byte
	storedAt time.Time
}

// NewMemoryStore creates a new in-memory store with the given TTL.
// A non-positive ttl falls back to DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get retrieves a value from the store. Returns (nil, false) on miss or
// expiry; an expired entry is deleted as a side effect. The returned slice
// is a copy; the caller may mutate it freely.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	ttl := s.ttl
	now := s.now()
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if now.Sub(entry.storedAt) >= ttl {
		// Expired - clean up lazily
		s.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have
		// refreshed the entry since the read above.
		if cur, ok := s.entries[key]; ok && s.now().Sub(cur.storedAt) >= s.ttl {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false
	}

	return append([]byte(nil), entry.value...), true
}

// Set stores a value stamped with the current time, overwriting any prior
// entry for the key.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte) {
	s.mu.Lock()
	s.entries[key] = memoryEntry{
		value:    append([]byte(nil), value...),
		storedAt: s.now(),
	}
	s.mu.Unlock()
}

// Delete removes a value from the store. Idempotent - no error on miss.
func (s *MemoryStore) Delete(_ context.Context, key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Clear removes every entry.
func (s *MemoryStore) Clear(_ context.Context) {
	s.mu.Lock()
	s.entries = make(map[string]memoryEntry)
	s.mu.Unlock()
}

// SetTTL changes the store-wide TTL. Existing entries are not re-stamped.
// A non-positive ttl falls back to DefaultTTL.
func (s *MemoryStore) SetTTL(ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.mu.Lock()
	s.ttl = ttl
	s.mu.Unlock()
}

// TTL returns the current store-wide TTL.
func (s *MemoryStore) TTL() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ttl
}

// Len reports the number of live entries, including any not yet evicted.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
