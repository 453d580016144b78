package database

import (
	"context"
	"time"
)

// Conn is a single exclusive driver connection. Driver packages implement it;
// only the Manager holds one, and callers reach it through a Handle.
type Conn interface {
	// Query executes a statement that returns rows. args are bound
	// positionally by the driver and never interpolated into sql.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error

	// Close releases the connection.
	Close(ctx context.Context) error

	// BindType is the sqlx bind type of the driver's native placeholders
	// (sqlx.QUESTION, sqlx.DOLLAR, …).
	BindType() int
}

// Connector opens a Conn from a fully rendered DSN.
// Implementations must honor timeout for connection establishment.
type Connector interface {
	Connect(ctx context.Context, dsn string, timeout time.Duration) (Conn, error)
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context, dsn string, timeout time.Duration) (Conn, error)

// Connect calls f.
func (f ConnectorFunc) Connect(ctx context.Context, dsn string, timeout time.Duration) (Conn, error) {
	return f(ctx, dsn, timeout)
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Columns returns the column names of the result set.
	Columns() ([]string, error)

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}
