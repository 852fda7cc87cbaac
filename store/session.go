package store

import (
	"context"
	"database/sql"
)

// Session is an opaque handle to the durable store: a dedicated connection
// plus its prepared statements. A session's lifetime spans pool init to
// pool teardown; it is never recreated on the happy path, and is only ever
// closed once, at teardown.
type Session struct {
	conn *sql.Conn

	selectStmt *sql.Stmt
	insertStmt *sql.Stmt
	deleteStmt *sql.Stmt
}

func newSession(ctx context.Context, db *sql.DB) (*Session, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	s := &Session{conn: conn}

	if s.selectStmt, err = conn.PrepareContext(ctx, selectKV); err != nil {
		conn.Close()
		return nil, err
	}
	if s.insertStmt, err = conn.PrepareContext(ctx, insertKV); err != nil {
		s.close()
		return nil, err
	}
	if s.deleteStmt, err = conn.PrepareContext(ctx, deleteKV); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func (s *Session) close() {
	if s.selectStmt != nil {
		s.selectStmt.Close()
	}
	if s.insertStmt != nil {
		s.insertStmt.Close()
	}
	if s.deleteStmt != nil {
		s.deleteStmt.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}

const (
	selectKV = `SELECT value FROM kv_store WHERE key_digest = ?`
	insertKV = `INSERT INTO kv_store (key_digest, skey, value) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value)`
	deleteKV = `DELETE FROM kv_store WHERE key_digest = ?`
)
