package database

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type fakeRows struct {
	columns []string
	data    [][]any
	idx     int
	scanErr error
	iterErr error
	closed  bool
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	row := r.data[r.idx-1]
	for i := range dest {
		*(dest[i].(*any)) = row[i]
	}
	return nil
}

func (r *fakeRows) Columns() ([]string, error) { return r.columns, nil }
func (r *fakeRows) Close()                     { r.closed = true }
func (r *fakeRows) Err() error                 { return r.iterErr }

type fakeConn struct {
	bindType int
	rows     *fakeRows
	queryErr error
	closeErr error

	queries []string
	args    [][]any
	closed  int
}

func (c *fakeConn) Query(_ context.Context, sql string, args ...any) (Rows, error) {
	c.queries = append(c.queries, sql)
	c.args = append(c.args, args)
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	if c.rows == nil {
		return &fakeRows{columns: []string{"n"}}, nil
	}
	r := *c.rows
	return &r, nil
}

func (c *fakeConn) Ping(context.Context) error { return nil }

func (c *fakeConn) Close(context.Context) error {
	c.closed++
	return c.closeErr
}

func (c *fakeConn) BindType() int {
	if c.bindType == 0 {
		return sqlx.QUESTION
	}
	return c.bindType
}

// fakeConnector hands out conns built by newConn and records every DSN.
type fakeConnector struct {
	newConn func() *fakeConn
	err     error
	block   bool

	dsns  []string
	conns []*fakeConn
}

func (f *fakeConnector) Connect(ctx context.Context, dsn string, _ time.Duration) (Conn, error) {
	f.dsns = append(f.dsns, dsn)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	c := &fakeConn{}
	if f.newConn != nil {
		c = f.newConn()
	}
	f.conns = append(f.conns, c)
	return c, nil
}

func (f *fakeConnector) calls() int { return len(f.dsns) }

type countingSecret struct {
	calls  int
	secret string
	err    error
}

func (s *countingSecret) Secret() (string, error) {
	s.calls++
	return s.secret, s.err
}

var errBoom = errors.New("boom")

func testConfig(policy Policy) *ConnectionConfig {
	cfg := DefaultConfig(DriverPostgres, "host=db user=app password={{.password}}")
	cfg.Timeout = time.Second
	cfg.Policy = policy
	return cfg
}
