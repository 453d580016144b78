// Package postgres connects querykit to PostgreSQL through pgx.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jmoiron/sqlx"
	"github.com/koustreak/querykit/internal/database"
	"github.com/koustreak/querykit/internal/errs"
)

// Connector opens single PostgreSQL connections.
//
// The DSN may be a URL or a key=value string, e.g.
// "host=db port=5432 user=app password={{.password}} dbname=sales".
type Connector struct{}

// Connect parses dsn, caps the connect timeout at timeout and dials.
func (Connector) Connect(ctx context.Context, dsn string, timeout time.Duration) (database.Conn, error) {
	cfg, err := configure(dsn, timeout)
	if err != nil {
		// The parse error can echo the DSN, which holds the secret.
		return nil, errs.New(errs.ErrKindConnectionFailed, "invalid postgres DSN")
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, mapError(err, errs.ErrKindConnectionFailed, "failed to connect")
	}
	return &Conn{conn: conn}, nil
}

func configure(dsn string, timeout time.Duration) (*pgx.ConnConfig, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if cfg.ConnectTimeout == 0 || cfg.ConnectTimeout > timeout {
		cfg.ConnectTimeout = timeout
	}
	return cfg, nil
}

// Conn is a database.Conn backed by one *pgx.Conn.
type Conn struct {
	conn *pgx.Conn
}

// --- database.Conn implementation ---

// Query executes a SQL statement that returns rows.
func (c *Conn) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err, errs.ErrKindQueryFailed, "query failed")
	}
	return &pgxRows{rows: rows}, nil
}

// Ping verifies the connection is alive.
func (c *Conn) Ping(ctx context.Context) error {
	if err := c.conn.Ping(ctx); err != nil {
		return mapError(err, errs.ErrKindConnectionFailed, "ping failed")
	}
	return nil
}

// Close terminates the connection.
func (c *Conn) Close(ctx context.Context) error {
	if err := c.conn.Close(ctx); err != nil {
		return mapError(err, errs.ErrKindConnectionFailed, "close failed")
	}
	return nil
}

// BindType reports $n placeholders.
func (c *Conn) BindType() int { return sqlx.DOLLAR }

// --- pgx type wrappers ---

// pgxRows wraps pgx.Rows to satisfy database.Rows.
type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool             { return r.rows.Next() }
func (r *pgxRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *pgxRows) Close()                 { r.rows.Close() }

func (r *pgxRows) Err() error {
	if err := r.rows.Err(); err != nil {
		return mapError(err, errs.ErrKindQueryFailed, "query failed")
	}
	return nil
}

func (r *pgxRows) Columns() ([]string, error) {
	descs := r.rows.FieldDescriptions()
	cols := make([]string, len(descs))
	for i, d := range descs {
		cols[i] = d.Name
	}
	return cols, nil
}
