// Package cache provides pluggable result caching for the analyzer.
//
// Analyses are pure functions of the wiring graph and the run options, so
// reports can be cached under a key derived from both. Three backends are
// provided: a file cache for CLI usage, a Redis cache for multi-instance
// server deployments, and a null cache that disables caching entirely.
package cache

import (
	"context"
	"time"
)

// DefaultReportTTL is how long cached analysis reports stay valid.
const DefaultReportTTL = 24 * time.Hour

// Cache stores opaque byte values under string keys with per-entry TTLs.
// Implementations must treat a missing or expired entry as a miss, never
// as an error.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero TTL means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}
