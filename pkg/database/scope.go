package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Scope wraps the connection a single request runs its queries on. Each
// incoming request is authorized and executed independently; membership and
// session data are read fresh through this connection, never cached across
// requests.
type Scope struct {
	Conn *pgxpool.Conn
}

// Close releases the connection back to the pool. It MUST be called when
// the request finishes.
func (s *Scope) Close() {
	if s.Conn == nil {
		return
	}
	s.Conn.Release()
}

// AcquireScope pins a pool connection for the duration of one request.
// The returned Scope MUST be closed with defer scope.Close().
func (db *DB) AcquireScope(ctx context.Context) (*Scope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &Scope{Conn: conn}, nil
}
