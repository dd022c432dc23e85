package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Scope wraps a single acquired connection. Every engine operation runs
// against a Scope carried in the context, so acquisition and release are
// explicit per unit of work instead of flowing through a shared global.
type Scope struct {
	Conn *pgxpool.Conn
}

// Close releases the connection back to the pool. It MUST be called once the
// unit of work is done; defer scope.Close() at the acquisition site.
func (s *Scope) Close() {
	if s.Conn == nil {
		return
	}
	s.Conn.Release()
}

// Acquire checks out a connection from the pool and wraps it in a Scope.
// The returned Scope MUST be closed with defer scope.Close().
func (db *DB) Acquire(ctx context.Context) (*Scope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &Scope{Conn: conn}, nil
}
