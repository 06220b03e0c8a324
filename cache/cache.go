package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 2048

// DefaultTTL is the expiry applied by stores when none is configured.
const DefaultTTL = 5 * time.Minute

// Sentinel errors for cache operations.
var (
	ErrNilStore   = errors.New("cache: store is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// Store is the interface for keyed, time-expiring response storage.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Expiry: Get must treat an entry whose age has reached the store TTL as
//   absent and remove it as a side effect.
// - Isolation: stored values must not share memory with callers; Get and
//   Set operate on copies.
type Store interface {
	// Get retrieves a cached value. Returns (nil, false) on miss or expiry.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value, stamping it with the current time. A later Set
	// for the same key overwrites the entry and its stamp.
	Set(ctx context.Context, key string, value []byte)

	// Delete removes a cached value. Idempotent - no error on miss.
	Delete(ctx context.Context, key string)

	// Clear removes every entry. Call on session boundaries (logout) so
	// data never leaks across logical sessions.
	Clear(ctx context.Context)

	// SetTTL changes the store-wide TTL. Existing entries keep their
	// original stamp; their expiry is evaluated against the new TTL on
	// the next read.
	SetTTL(ttl time.Duration)

	// TTL returns the current store-wide TTL.
	TTL() time.Duration
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
