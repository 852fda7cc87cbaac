// Package coordinator orchestrates the read-through/write-behind state
// machine across the three concurrent subsystems: request handlers calling
// in, the sharded cache, and the write-behind workers draining to the
// durable store.
//
// The request path never waits on the durable store for mutations: HandlePut
// and HandleDelete update the cache synchronously and enqueue the durable
// write for a worker. Only a HandleGet miss touches the store inline, and
// even then holds a pooled session for exactly one statement.
package coordinator

import (
	"context"
	"errors"

	"github.com/MohitThorat/kvserver/cache"
	"github.com/MohitThorat/kvserver/digest"
	"github.com/MohitThorat/kvserver/log"
	"github.com/MohitThorat/kvserver/queue"
	"github.com/MohitThorat/kvserver/store"
)

// Sessions is the bounded session pool the read-through path draws from.
// *store.SessionPool is the production implementation.
type Sessions interface {
	Acquire(ctx context.Context) (*store.Session, error)
	Release(*store.Session)
}

// Lookups is the synchronous read side of the durable store.
// *store.Adapter is the production implementation.
type Lookups interface {
	Lookup(ctx context.Context, s *store.Session, d digest.Key) ([]byte, error)
}

// Enqueuer is the write-behind hand-off. *queue.Queue is the production
// implementation; enqueueing must never block the calling handler.
type Enqueuer interface {
	Enqueue(queue.Task)
}

// Coordinator binds the cache, the session pool, and the write-behind
// queue into the three operations the HTTP front end invokes. All
// collaborators are non-owning references whose lifetimes exceed the
// coordinator's.
type Coordinator struct {
	cache    cache.Cache[string, []byte]
	sessions Sessions
	adapter  Lookups
	tasks    Enqueuer
	logger   log.Logger
}

// New constructs a Coordinator. If logger is nil, log.NopLogger is used.
func New(c cache.Cache[string, []byte], sessions Sessions, adapter Lookups, tasks Enqueuer, logger log.Logger) *Coordinator {
	if logger == nil {
		logger = log.NopLogger{}
	}
	return &Coordinator{
		cache:    c,
		sessions: sessions,
		adapter:  adapter,
		tasks:    tasks,
		logger:   logger,
	}
}

// HandleGet returns the value for key, consulting the cache first and
// falling through to the durable store on a miss. At most one store lookup
// happens per call; concurrent misses on the same key may each perform
// their own lookup (no single-flight consolidation, by contract).
//
// A store error is surfaced alongside ok=false: the key is treated as
// absent and the cache is left unchanged, but the caller may choose to
// answer with a 5xx instead of "not found".
func (co *Coordinator) HandleGet(ctx context.Context, key string) (value []byte, ok bool, err error) {
	if v, hit := co.cache.Get(key); hit {
		return v, true, nil
	}

	s, err := co.sessions.Acquire(ctx)
	if err != nil {
		return nil, false, err
	}
	v, err := co.adapter.Lookup(ctx, s, digest.OfString(key))
	co.sessions.Release(s)

	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, false, nil
	case err != nil:
		co.logger.Warn("read-through lookup failed", log.Fields{"key": key, "err": err})
		return nil, false, err
	case len(v) == 0:
		// An empty value from the store is treated as absent and never
		// admitted, so "key missing" and "key present but empty" are
		// indistinguishable to callers. Kept for wire compatibility with
		// existing clients.
		return nil, false, nil
	}

	co.cache.Set(key, v)
	return v, true, nil
}

// HandlePut updates the cache synchronously and enqueues the durable
// upsert for a write-behind worker. It returns as soon as the task is in
// the queue; durability lags by the queue's drain latency.
func (co *Coordinator) HandlePut(key string, value []byte) {
	co.cache.Set(key, value)
	co.tasks.Enqueue(queue.NewUpsert(digest.OfString(key), key, value))
}

// HandleDelete evicts the key from the cache (a miss is fine) and enqueues
// the durable delete.
func (co *Coordinator) HandleDelete(key string) {
	co.cache.Remove(key)
	co.tasks.Enqueue(queue.NewDelete(digest.OfString(key)))
}
