package cache

import (
	"sync"

	"github.com/MohitThorat/kvserver/internal/util"
	"github.com/MohitThorat/kvserver/sampling"
)

// shard is an independent partition of the cache with its own lock and map.
// There is no intrusive ordering structure: recency is tracked per-entry via
// an atomic tick (see entry.go), and eviction picks a victim by sampling
// rather than by walking a list. This is what lets Get take only the
// shard's shared lock.
type shard[K comparable, V any] struct {
	// ---- guarded by mu ----
	mu  sync.RWMutex
	m   map[K]*entry[K, V]
	cap int // per-shard entry capacity

	sampleSize int
	opt        Options[K, V]

	// tick is the monotonic recency counter shared by every entry in this
	// shard. It is NOT wall-clock time: it is a pure ordinal, incremented on
	// every Get/Add/Set so the relative order of accesses is recoverable
	// without ever taking an exclusive lock to record it.
	tick util.PaddedAtomicUint64

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	_      util.CacheLinePad
	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
	evicts util.PaddedAtomicUint64
}

// newShard initializes a shard with the given per-shard capacity and options.
func newShard[K comparable, V any](capacity, sampleSize int, opt Options[K, V]) *shard[K, V] {
	return &shard[K, V]{
		m:          make(map[K]*entry[K, V], capacity),
		cap:        capacity,
		sampleSize: sampleSize,
		opt:        opt,
	}
}

// Add inserts a NEW entry (no update). Returns false if the key already
// exists.
func (s *shard[K, V]) Add(k K, v V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.m[k]; exists {
		return false
	}
	e := &entry[K, V]{key: k, val: v}
	e.lastAccess.Store(s.tick.Add(1))
	s.m[k] = e
	s.enforceCapLocked()
	return true
}

// Set inserts or updates an entry, refreshing its recency tick.
func (s *shard[K, V]) Set(k K, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.m[k]; ok {
		e.val = v
		e.lastAccess.Store(s.tick.Add(1))
		return
	}
	e := &entry[K, V]{key: k, val: v}
	e.lastAccess.Store(s.tick.Add(1))
	s.m[k] = e
	s.enforceCapLocked()
}

// Get returns the value and, on hit, stamps a fresh recency tick.
//
// Only the shard's shared (read) lock is held: the map itself is not
// mutated, and lastAccess is an atomic cell, so concurrent Get calls never
// block one another or block Add/Set/Remove any longer than a plain read
// would.
func (s *shard[K, V]) Get(k K) (V, bool) {
	s.mu.RLock()
	e, ok := s.m[k]
	if !ok {
		s.mu.RUnlock()
		s.misses.Add(1)
		s.opt.Metrics.Miss()
		var zero V
		return zero, false
	}
	// Copy the value while still holding the shared lock: Set replaces
	// e.val in place under the exclusive lock, so reading it after RUnlock
	// could observe a torn write.
	v := e.val
	e.lastAccess.Store(s.tick.Add(1))
	s.mu.RUnlock()

	s.hits.Add(1)
	s.opt.Metrics.Hit()
	return v, true
}

// Remove deletes an entry by key. Returns true if the entry existed.
func (s *shard[K, V]) Remove(k K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[k]; !ok {
		return false
	}
	delete(s.m, k)
	return true
}

// Len returns the number of resident entries in this shard.
func (s *shard[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// -------------------- internals (mu held for writing) --------------------

// enforceCapLocked evicts entries, one sampling round at a time, until the
// shard is back within capacity. Each round samples (or fully scans, for
// small shards) the resident set for the minimum-lastAccess entry and
// evicts exactly that one, per the approximate-LRU rule: evicting the true
// minimum of a candidate sample approximates true LRU without the cost of
// maintaining an ordered structure on every access.
func (s *shard[K, V]) enforceCapLocked() {
	for len(s.m) > s.cap {
		victim, ok := s.pickVictimLocked()
		if !ok {
			break
		}
		v := s.m[victim].val
		delete(s.m, victim)
		s.evicts.Add(1)
		s.opt.Metrics.Evict(EvictSampled)
		if cb := s.opt.OnEvict; cb != nil {
			cb(victim, v)
		}
	}
	s.opt.Metrics.Size(len(s.m))
}

// pickVictimLocked selects the entry with the lowest lastAccess tick among
// a sample of the resident set, relying on Go's randomized map iteration
// order to supply the "random" sample instead of maintaining an explicit
// random-access index.
func (s *shard[K, V]) pickVictimLocked() (K, bool) {
	plan := sampling.New(len(s.m), s.sampleSize)

	var (
		victim    K
		victimTA  uint64
		found     bool
		examined  int
	)
	for k, e := range s.m {
		ta := e.lastAccess.Load()
		if !found || ta < victimTA {
			victim, victimTA, found = k, ta, true
		}
		examined++
		if !plan.ScanAll && examined >= plan.K {
			break
		}
	}
	return victim, found
}
