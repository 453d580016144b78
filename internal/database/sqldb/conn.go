// Package sqldb adapts a database/sql pool to database.Conn by pinning one
// physical connection. The mysql and sqlite drivers build on it.
package sqldb

import (
	"context"
	"database/sql"

	"github.com/koustreak/querykit/internal/database"
	"github.com/koustreak/querykit/internal/errs"
)

// MapFunc translates a native driver error into an *errs.Error of the given
// kind. Drivers pass their own mapping to enrich messages.
type MapFunc func(err error, kind errs.ErrKind, msg string) error

// Conn is a database.Conn backed by a single *sql.Conn taken from a pool
// capped at one open connection.
type Conn struct {
	db       *sql.DB
	conn     *sql.Conn
	bindType int
	mapErr   MapFunc
}

// Open pins a connection from db. db is owned by the returned Conn from now
// on and is closed with it, including when Open fails.
func Open(ctx context.Context, db *sql.DB, bindType int, mapErr MapFunc) (*Conn, error) {
	if mapErr == nil {
		mapErr = defaultMap
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, mapErr(err, errs.ErrKindConnectionFailed, "failed to open connection")
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, mapErr(err, errs.ErrKindConnectionFailed, "ping failed")
	}

	return &Conn{db: db, conn: conn, bindType: bindType, mapErr: mapErr}, nil
}

// --- database.Conn implementation ---

func (c *Conn) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, c.mapErr(err, errs.ErrKindQueryFailed, "query failed")
	}
	return &sqlRows{rows: rows}, nil
}

func (c *Conn) Ping(ctx context.Context) error {
	if err := c.conn.PingContext(ctx); err != nil {
		return c.mapErr(err, errs.ErrKindConnectionFailed, "ping failed")
	}
	return nil
}

// Close returns the pinned connection and shuts the pool down.
func (c *Conn) Close(_ context.Context) error {
	connErr := c.conn.Close()
	dbErr := c.db.Close()
	if connErr != nil {
		return c.mapErr(connErr, errs.ErrKindConnectionFailed, "failed to release connection")
	}
	if dbErr != nil {
		return c.mapErr(dbErr, errs.ErrKindConnectionFailed, "failed to close pool")
	}
	return nil
}

func (c *Conn) BindType() int { return c.bindType }

// --- sql.Rows wrapper ---

type sqlRows struct {
	rows *sql.Rows
}

func (r *sqlRows) Next() bool                 { return r.rows.Next() }
func (r *sqlRows) Scan(dest ...any) error     { return r.rows.Scan(dest...) }
func (r *sqlRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *sqlRows) Close()                     { _ = r.rows.Close() }
func (r *sqlRows) Err() error                 { return r.rows.Err() }

func defaultMap(err error, kind errs.ErrKind, msg string) error {
	return errs.Wrap(kind, msg, err)
}
