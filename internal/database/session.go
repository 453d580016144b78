package database

import (
	"context"

	"github.com/koustreak/querykit/internal/errs"
	"github.com/koustreak/querykit/internal/logger"
)

// Session ties a Manager to an Executor for one logical session and keeps the
// most recent result until the next successful execution replaces it.
//
// How connections behave across executions is decided by the Manager's
// policy: reuse keeps one connection open until Close, fresh opens and closes
// one per execution, once runs everything on the connection made at
// construction.
type Session struct {
	mgr  *Manager
	exec *Executor
	log  *logger.Logger
	last *Result
}

// NewSession returns a session over mgr and exec.
func NewSession(mgr *Manager, exec *Executor, log *logger.Logger) *Session {
	return &Session{mgr: mgr, exec: exec, log: logger.OrNop(log)}
}

// WithSession runs fn against a new session and closes the session's
// connection on every exit path.
func WithSession(ctx context.Context, mgr *Manager, exec *Executor, log *logger.Logger, fn func(*Session) error) (err error) {
	s := NewSession(mgr, exec, log)
	defer func() {
		if cerr := s.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(s)
}

// Execute acquires a connection per the manager's policy, runs q, releases
// the connection and records the result.
//
// When the run succeeds but releasing the connection fails, the result is
// still recorded and returned together with the release error. A one-shot
// session has no second chance to produce it.
func (s *Session) Execute(ctx context.Context, q Query) (*Result, error) {
	if s.exec.Exhausted() {
		return nil, errs.New(errs.ErrKindAlreadyExecuted, "one-shot session has already run its query")
	}

	h, release, err := s.mgr.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.exec.Run(ctx, h, q)
	rerr := release(ctx)
	if err != nil {
		return nil, err
	}

	s.last = res
	if rerr != nil {
		s.log.ErrorWith("releasing connection after a successful query failed", rerr, nil)
		return res, rerr
	}
	return res, nil
}

// Query executes sql with positional args.
func (s *Session) Query(ctx context.Context, sql string, args ...any) (*Result, error) {
	return s.Execute(ctx, Query{SQL: sql, Args: args})
}

// Run builds spec and executes it with args.
func (s *Session) Run(ctx context.Context, spec Spec, args ...any) (*Result, error) {
	sql, err := Build(spec, s.log)
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, Query{SQL: sql, Args: args})
}

// Last returns the result of the most recent successful execution, or nil.
func (s *Session) Last() *Result {
	return s.last
}

// Manager returns the session's connection manager.
func (s *Session) Manager() *Manager {
	return s.mgr
}

// Close closes the session's connection. It is idempotent.
func (s *Session) Close(ctx context.Context) error {
	return s.mgr.Close(ctx)
}
