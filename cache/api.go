package cache

import "context"

// Cache is a sharded, in-memory key/value cache interface.
// All methods are safe for concurrent use by multiple goroutines.
//
// Get takes only a shard's shared (read) lock: it stamps the entry's
// recency under that shared lock via an atomic counter rather than
// mutating any list structure, so concurrent Get calls on distinct or
// shared keys never block one another. Add/Set/Remove and eviction take
// the shard's exclusive lock.
type Cache[K comparable, V any] interface {
	// Add inserts k→v only if k is not present.
	// Returns false if the key already exists (no update is performed).
	Add(k K, v V) bool

	// Set inserts or updates k→v.
	Set(k K, v V)

	// Get returns the value for k and a boolean flag indicating presence.
	// On hit, the entry's recency tick is refreshed under the shard's
	// shared lock.
	Get(k K) (V, bool)

	// Remove deletes k if present and returns true on success.
	Remove(k K) bool

	// Len returns the total number of resident entries across all shards.
	Len() int

	// Close marks the cache closed. Current implementation is a soft close
	// and returns nil.
	Close() error

	// GetOrLoad returns the value for k, loading it via Options.Loader on
	// miss. Concurrent loads for the same key are coalesced (singleflight).
	// If no Loader was configured, returns ErrNoLoader.
	GetOrLoad(ctx context.Context, k K) (V, error)
}
