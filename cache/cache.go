package cache

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/MohitThorat/kvserver/internal/singleflight"
	"github.com/MohitThorat/kvserver/internal/util"
)

// ErrNoLoader is returned by GetOrLoad when no Loader was configured in Options.
var ErrNoLoader = errors.New("cache: no Loader provided")

// defaultSampleSize is used when Options.SampleSize <= 0.
const defaultSampleSize = 8

// cache is a sharded in-memory KV store using approximate-LRU (random
// sampling) eviction. All methods are safe for concurrent use by multiple
// goroutines.
type cache[K comparable, V any] struct {
	shards []*shard[K, V]
	hash   func(K) uint64
	closed atomic.Bool

	opt Options[K, V]

	// singleflight group for coalescing concurrent loads in GetOrLoad.
	sf singleflight.Group[K, V]
}

// New constructs a cache with the provided Options.
// Defaults:
//   - nil Metrics     -> NoopMetrics
//   - Shards <= 0     -> auto (a power of two); a positive value is
//     rounded up to the next power of two
//   - SampleSize <= 0 -> 8
func New[K comparable, V any](opt Options[K, V]) Cache[K, V] {
	if opt.Capacity <= 0 {
		panic("Capacity must be > 0")
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.SampleSize <= 0 {
		opt.SampleSize = defaultSampleSize
	}

	// number of shards -> power of two
	sh := opt.Shards
	if sh <= 0 {
		sh = util.ReasonableShardCount()
	} else {
		sh = int(util.NextPow2(uint64(sh)))
	}

	cs := make([]*shard[K, V], sh)
	perShardCap := (opt.Capacity + sh - 1) / sh // split capacity evenly (ceil)
	for i := 0; i < sh; i++ {
		cs[i] = newShard[K, V](perShardCap, opt.SampleSize, opt)
	}

	return &cache[K, V]{
		shards: cs,
		hash:   util.Hash64[K],
		opt:    opt,
	}
}

// ---- Cache[K,V] implementation ----

// Add inserts k→v only if absent. Returns false if the key already exists.
func (c *cache[K, V]) Add(k K, v V) bool {
	if c.closed.Load() {
		return false
	}
	return c.getShard(k).Add(k, v)
}

// Set inserts or updates k→v.
func (c *cache[K, V]) Set(k K, v V) {
	if c.closed.Load() {
		return
	}
	c.getShard(k).Set(k, v)
}

// Get returns the value for k and a presence flag, refreshing recency on
// hit under only the shard's shared lock.
func (c *cache[K, V]) Get(k K) (V, bool) {
	if c.closed.Load() {
		var zero V
		return zero, false
	}
	return c.getShard(k).Get(k)
}

// Remove deletes k if present and returns true on success.
func (c *cache[K, V]) Remove(k K) bool {
	if c.closed.Load() {
		return false
	}
	return c.getShard(k).Remove(k)
}

// Len returns the total number of resident entries across all shards.
func (c *cache[K, V]) Len() int {
	total := 0
	for _, s := range c.shards {
		total += s.Len()
	}
	return total
}

// Close marks the cache as closed. Later Add/Set/Get/Remove calls are
// ignored (Add and Remove return false, Get reports a miss). Len still
// reports resident entries, and GetOrLoad still calls the Loader but does
// not cache its result.
func (c *cache[K, V]) Close() error {
	c.closed.Store(true)
	return nil
}

// GetOrLoad returns the value for k; on miss it loads via Options.Loader,
// coalescing concurrent loads for the same key (singleflight).
// If no Loader is configured, returns ErrNoLoader.
func (c *cache[K, V]) GetOrLoad(ctx context.Context, k K) (V, error) {
	if v, ok := c.Get(k); ok {
		return v, nil
	}
	if c.opt.Loader == nil {
		var zero V
		return zero, ErrNoLoader
	}

	return c.sf.Do(ctx, k, func() (V, error) {
		if v, ok := c.Get(k); ok {
			return v, nil
		}
		v, err := c.opt.Loader(ctx, k)
		if err == nil {
			c.Set(k, v)
		}
		return v, err
	})
}

// ---- helpers ----

// getShard picks a shard by hashing the key. len(c.shards) is a power of
// two, so ShardIndex takes its mask fast path.
func (c *cache[K, V]) getShard(k K) *shard[K, V] {
	return c.shards[util.ShardIndex(c.hash(k), len(c.shards))]
}
