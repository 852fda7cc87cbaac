package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/MohitThorat/kvserver/digest"
)

// Adapter is the prepared-statement front for the durable store:
// lookup(key_digest) -> value?, upsert(key_digest, key, value),
// delete(key_digest). It does not own a session; every call is handed an
// already-acquired *Session by the caller, per the pool's acquire/release
// contract.
type Adapter struct {
	// statementTimeout bounds every statement execution. Zero means the
	// statement inherits whatever deadline the caller's context carries.
	statementTimeout time.Duration
}

// NewAdapter constructs an Adapter whose statements are bounded by
// statementTimeout (zero disables the per-statement bound). All durable
// state lives in the Session and SessionPool; the Adapter itself only
// carries statement configuration.
func NewAdapter(statementTimeout time.Duration) *Adapter {
	return &Adapter{statementTimeout: statementTimeout}
}

// bound applies the per-statement timeout, if configured.
func (a *Adapter) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.statementTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.statementTimeout)
}

// Lookup runs select_kv(key_digest) -> value against s. Returns
// ErrNotFound if no row matches the digest.
func (a *Adapter) Lookup(ctx context.Context, s *Session, d digest.Key) ([]byte, error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()

	var value []byte
	err := s.selectStmt.QueryRowContext(ctx, d.Bytes()).Scan(&value)
	switch {
	case err == nil:
		return value, nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNotFound
	default:
		return nil, &StatementError{Statement: "select_kv", Err: err}
	}
}

// Upsert runs insert_kv(key_digest, key, value) against s. Duplicate key on
// digest replaces the stored value.
func (a *Adapter) Upsert(ctx context.Context, s *Session, d digest.Key, key string, value []byte) error {
	ctx, cancel := a.bound(ctx)
	defer cancel()

	if _, err := s.insertStmt.ExecContext(ctx, d.Bytes(), key, value); err != nil {
		return &StatementError{Statement: "insert_kv", Err: err}
	}
	return nil
}

// Delete runs delete_kv(key_digest) against s. A no-op on a missing
// digest is not an error.
func (a *Adapter) Delete(ctx context.Context, s *Session, d digest.Key) error {
	ctx, cancel := a.bound(ctx)
	defer cancel()

	if _, err := s.deleteStmt.ExecContext(ctx, d.Bytes()); err != nil {
		return &StatementError{Statement: "delete_kv", Err: err}
	}
	return nil
}
