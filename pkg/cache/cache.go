// Package cache stores rendered chart artifacts keyed by content hash.
//
// Three backends implement [Cache]:
//
//   - [NullCache]: never stores anything; the default for one-off renders
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [RedisCache]: a shared redis instance, for preview servers behind a
//     load balancer
//
// Keys come from a [Keyer]. The default keyer hashes the record data and
// every option that changes the output, so a cached artifact is reused only
// when the same data would render the same bytes.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry. A zero TTL never expires.
type Cache interface {
	// Get returns the value and whether it was found. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
