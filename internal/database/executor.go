package database

import (
	"context"
	"time"

	"github.com/koustreak/querykit/internal/errs"
	"github.com/koustreak/querykit/internal/logger"
)

// Executor runs built queries on a connected Handle and materializes the
// whole result set. It never opens connections itself: running on a handle
// that is not connected fails with ErrKindNotConnected.
//
// A one-shot executor permits exactly one successful run; afterwards it is
// Exhausted and every Run fails with ErrKindAlreadyExecuted without touching
// the connection. A failed run does not exhaust it.
type Executor struct {
	oneShot   bool
	exhausted bool
	log       *logger.Logger
}

// NewExecutor returns an executor. log may be nil.
func NewExecutor(log *logger.Logger, oneShot bool) *Executor {
	return &Executor{
		oneShot: oneShot,
		log:     logger.OrNop(log),
	}
}

// OneShot reports whether the executor is single-use.
func (e *Executor) OneShot() bool { return e.oneShot }

// Exhausted reports whether a one-shot executor has already run.
func (e *Executor) Exhausted() bool { return e.exhausted }

// Run executes q on h. Placeholders written as ? are rebound to the driver's
// native style (see rebind) and q.Args are passed positionally. The cursor
// is released before Run returns; the connection is left as it is.
func (e *Executor) Run(ctx context.Context, h *Handle, q Query) (*Result, error) {
	if e.exhausted {
		return nil, errs.New(errs.ErrKindAlreadyExecuted, "one-shot executor has already run its query")
	}
	if !h.Connected() {
		return nil, errs.New(errs.ErrKindNotConnected, "query executed without an open connection")
	}

	conn := h.conn()
	sql := rebind(conn.BindType(), q.SQL)
	start := time.Now()

	rows, err := conn.Query(ctx, sql, q.Args...)
	if err != nil {
		e.log.ErrorWith("query failed", err, map[string]interface{}{"args": len(q.Args)})
		return nil, asQueryFailed("query execution failed", err)
	}

	result, err := scanAll(rows)
	if err != nil {
		e.log.ErrorWith("reading result failed", err, nil)
		return nil, asQueryFailed("failed to read result", err)
	}

	if e.oneShot {
		e.exhausted = true
	}

	e.log.DebugWith("query executed", map[string]interface{}{
		"rows":        result.Len(),
		"columns":     len(result.columns),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return result, nil
}

// asQueryFailed keeps execution-phase errors that are already classified and
// wraps everything else, so connection-kind errors from the driver never leak
// out of the execution phase.
func asQueryFailed(msg string, err error) error {
	if errs.KindOf(err) == errs.ErrKindQueryFailed {
		return err
	}
	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}
