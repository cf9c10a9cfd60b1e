package cache

import (
	"context"
	"time"
)

// Store is the shared lookup-result cache contract. Absence of a key is
// reported via ErrCacheKeyNotFound and is meaningful, not exceptional: the
// pending-id tracker treats "absent key" as its completion signal.
//
// Note the process-local timer store deliberately does NOT implement Store;
// live timer handles are not serializable and must never end up in a
// distributed backend.
type Store interface {
	// Get retrieves a raw value by key
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value with optional TTL (0 means no expiration)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes a key; deleting an absent key succeeds
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists
	Exists(ctx context.Context, key string) (bool, error)

	// GetJSON retrieves and unmarshals JSON data
	GetJSON(ctx context.Context, key string, dest interface{}) error

	// SetJSON marshals and stores JSON data
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Close closes the cache connection
	Close() error
}

// Common TTL values
const (
	// DefaultResultTTL bounds how long a processed per-number result is
	// reusable before a fresh paid lookup is warranted.
	DefaultResultTTL = 24 * time.Hour

	// PendingStateTTL bounds request-scoped bookkeeping (unprocessed ids,
	// looked-up numbers) so abandoned requests cannot leak keys forever.
	PendingStateTTL = 1 * time.Hour
)

// ErrCacheKeyNotFound is returned when a cache key doesn't exist
type ErrCacheKeyNotFound struct {
	Key string
}

func (e ErrCacheKeyNotFound) Error() string {
	return "cache key not found: " + e.Key
}

// IsNotFound reports whether err signals an absent cache key.
func IsNotFound(err error) bool {
	_, ok := err.(ErrCacheKeyNotFound)
	return ok
}
