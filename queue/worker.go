package queue

import (
	"context"
	"sync"

	"github.com/MohitThorat/kvserver/digest"
	"github.com/MohitThorat/kvserver/log"
	"github.com/MohitThorat/kvserver/store"
)

// Sessions is the bounded session pool workers draw from.
// *store.SessionPool is the production implementation.
type Sessions interface {
	Acquire(ctx context.Context) (*store.Session, error)
	Release(*store.Session)
}

// Executor runs the two mutating prepared statements.
// *store.Adapter is the production implementation.
type Executor interface {
	Upsert(ctx context.Context, s *store.Session, d digest.Key, key string, value []byte) error
	Delete(ctx context.Context, s *store.Session, d digest.Key) error
}

// Pool is a fixed-size worker pool draining a Queue into the durable
// store. It holds a non-owning reference to the session pool: the session
// pool is a collaborator whose lifetime strictly exceeds the worker pool's,
// not something the worker pool creates or tears down.
type Pool struct {
	q        *Queue
	sessions Sessions
	adapter  Executor
	logger   log.Logger

	wg sync.WaitGroup
}

// NewPool constructs a worker pool. If logger is nil, log.NopLogger is
// used.
func NewPool(q *Queue, sessions Sessions, adapter Executor, logger log.Logger) *Pool {
	if logger == nil {
		logger = log.NopLogger{}
	}
	return &Pool{q: q, sessions: sessions, adapter: adapter, logger: logger}
}

// Start launches n worker goroutines, each running runWorker until the
// queue is closed and drained.
func (p *Pool) Start(ctx context.Context, n int) {
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer p.wg.Done()
			p.runWorker(ctx)
		}()
	}
}

// Wait blocks until every worker goroutine has exited (the queue was
// closed and drained).
func (p *Pool) Wait() { p.wg.Wait() }

// runWorker is one worker's loop: wait for a task, dequeue it, acquire a
// session, execute the corresponding statement, release the session, and
// on failure log and continue; failed tasks are never retried or
// re-enqueued.
func (p *Pool) runWorker(ctx context.Context) {
	for {
		task, ok := p.q.Dequeue()
		if !ok {
			return
		}
		p.execute(ctx, task)
	}
}

func (p *Pool) execute(ctx context.Context, task Task) {
	s, err := p.sessions.Acquire(ctx)
	if err != nil {
		p.logger.Error("write-behind: session acquire failed", log.Fields{
			"kind": kindString(task.Kind), "err": err,
		})
		return
	}
	defer p.sessions.Release(s)

	switch task.Kind {
	case Upsert:
		err = p.adapter.Upsert(ctx, s, task.Digest, task.Key, task.Value)
	case Delete:
		err = p.adapter.Delete(ctx, s, task.Digest)
	}
	if err != nil {
		p.logger.Error("write-behind: statement failed", log.Fields{
			"kind": kindString(task.Kind), "digest": task.Digest, "err": err,
		})
	}
}

func kindString(k Kind) string {
	if k == Upsert {
		return "upsert"
	}
	return "delete"
}
