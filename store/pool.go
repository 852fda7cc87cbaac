// Package store is the durable-store collaborator: a bounded pool of
// reusable sessions (database/sql connections with their prepared
// statements) plus prepared-statement wrappers for lookup/upsert/delete.
//
// Grounded on the original system's MySQLPool (stack<MYSQL*> guarded by a
// mutex and condition variable): the pool here is a stack of *Session
// guarded by a sync.Mutex and a sync.Cond, with the same blocking
// acquire/release contract.
package store

import (
	"context"
	"database/sql"
	"sync"
)

// PoolConfig configures session pool construction.
type PoolConfig struct {
	DSN  string // github.com/go-sql-driver/mysql data source name
	Size int    // fixed at construction; must be >= concurrent readers + workers
}

// SessionPool is a bounded stack of reusable Sessions. Acquire blocks until
// a session is available; Release returns a session and wakes one waiter.
//
// A released session is immediately available for the next acquirer — no
// cooldown — and sessions are never health-checked here: the adapter
// surfaces statement errors to the caller, who logs and proceeds (see
// StatementError).
type SessionPool struct {
	db *sql.DB

	mu       sync.Mutex
	notEmpty sync.Cond
	idle     []*Session
	closed   bool
}

// Open dials the durable store and constructs a SessionPool of exactly
// cfg.Size sessions, each backed by its own dedicated connection and
// prepared statements. The sessions are created eagerly, up front, per the
// "fixed at construction" sizing rule.
func Open(ctx context.Context, cfg PoolConfig) (*SessionPool, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, err
	}
	// The underlying *sql.DB keeps its own internal pool of physical
	// connections; we size it to exactly what our session pool will use so
	// that session.conn always maps to a distinct physical connection for
	// the session's lifetime.
	db.SetMaxOpenConns(cfg.Size)
	db.SetMaxIdleConns(cfg.Size)

	p := &SessionPool{db: db}
	p.notEmpty.L = &p.mu

	for i := 0; i < cfg.Size; i++ {
		s, err := newSession(ctx, db)
		if err != nil {
			p.closeIdleLocked()
			db.Close()
			return nil, err
		}
		p.idle = append(p.idle, s)
	}
	return p, nil
}

// Acquire blocks until a session is available, then returns it exclusively
// to the caller. The caller must pair every Acquire with exactly one
// Release.
func (p *SessionPool) Acquire(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	for len(p.idle) == 0 && !p.closed {
		p.notEmpty.Wait()
	}
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	n := len(p.idle) - 1
	s := p.idle[n]
	p.idle = p.idle[:n]
	p.mu.Unlock()
	return s, nil
}

// Release returns a session to the pool and wakes one waiter, if any.
func (p *SessionPool) Release(s *Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		s.close()
		return
	}
	p.idle = append(p.idle, s)
	p.notEmpty.Signal()
}

// Len reports the number of currently idle sessions, for saturation
// observability (see metrics/prom).
func (p *SessionPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

// Close marks the pool closed, closes every idle session, and releases the
// underlying *sql.DB. Sessions currently checked out are closed as they are
// released.
func (p *SessionPool) Close() error {
	p.mu.Lock()
	p.closed = true
	p.closeIdleLocked()
	p.notEmpty.Broadcast()
	p.mu.Unlock()
	return p.db.Close()
}

func (p *SessionPool) closeIdleLocked() {
	for _, s := range p.idle {
		s.close()
	}
	p.idle = nil
}
