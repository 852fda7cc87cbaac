package cache

import "sync/atomic"

// entry is a resident cache record owned by exactly one shard.
//
// lastAccess is an atomic cell rather than a plain field so that Get can
// stamp fresh recency under the shard's *shared* lock (see shard.go): no
// other field of entry is ever written without the shard's exclusive lock.
type entry[K comparable, V any] struct {
	key K
	val V

	lastAccess atomic.Uint64
}
