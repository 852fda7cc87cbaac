// Package cache provides a fast, generic, sharded in-memory cache using
// approximate-LRU (random sampling) eviction and lightweight metrics hooks.
//
// Design
//
//   - Concurrency: the cache is split into shards, each protected by an
//     RWMutex. The default shard count is chosen by a heuristic
//     (util.ReasonableShardCount-style doubling of GOMAXPROCS) and is a
//     power of two, to reduce contention while keeping memory overhead
//     small.
//
//   - Storage: each shard keeps a plain map[K]*entry. There is no intrusive
//     ordering list: every entry carries its own atomic recency tick
//     (lastAccess), stamped by a shard-wide monotonic counter. This is what
//     lets Get take only the shard's shared (read) lock — it never needs to
//     splice a list node, so it never needs the exclusive lock a strict-LRU
//     cache would require on every hit.
//
//   - Eviction: when a shard exceeds its capacity, it samples a small,
//     fixed number of resident entries (package sampling decides how many,
//     falling back to a full scan for small shards) and evicts the one
//     with the lowest recency tick. This approximates true LRU without the
//     cost of maintaining an ordered structure on every access. Go's
//     randomized map iteration order supplies the sample directly — no
//     explicit random index bookkeeping is needed.
//
//   - GetOrLoad: coalesces concurrent loads for the same key using
//     singleflight. If Loader is nil, GetOrLoad returns ErrNoLoader. Direct
//     callers of Get/Set never get this coalescing; a read-through caller
//     that wants uncoalesced misses (see the request coordinator) should
//     call Get and Set directly instead of GetOrLoad.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size signals. By
//     default NoopMetrics is used; plug a Prometheus adapter to export
//     metrics.
//
//   - Callbacks: Options.OnEvict(k, v) is called for every sampled
//     eviction.
//
// Basic usage
//
//	c := cache.New[string, []byte](cache.Options[string, []byte]{Capacity: 10_000})
//	c.Set("a", []byte("1"))
//	if v, ok := c.Get("a"); ok {
//	    _ = v // use value
//	}
//	c.Remove("a")
//
// With GetOrLoad (singleflight)
//
//	c := cache.New[string, string](cache.Options[string, string]{
//	    Capacity: 1024,
//	    Loader: func(ctx context.Context, k string) (string, error) {
//	        return "v:" + k, nil
//	    },
//	})
//	v, err := c.GetOrLoad(context.Background(), "key")
//
// Exporting metrics (example Prometheus adapter)
//
//	m := prom.New(nil, "cachex", "demo", nil) // implements Metrics
//	c := cache.New[string, []byte](cache.Options[string, []byte]{
//	    Capacity: 10_000,
//	    Metrics:  m,
//	})
//
// Thread-safety & complexity
//
// All methods on Cache are safe for concurrent use. Get is O(1) expected
// time under a shared lock; Add/Set/Remove are O(1) expected under an
// exclusive lock. Eviction cost is O(SampleSize) per evicted entry (or
// O(n) for shards too small to sample meaningfully).
package cache
