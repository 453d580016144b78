package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/koustreak/querykit/internal/errs"
)

// PostgreSQL SQLSTATE classes and codes used to describe failures.
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgClassConnection    = "08"
	pgClassAuthorization = "28"
	pgErrSyntaxError     = "42601"
	pgErrUndefinedTable  = "42P01"
	pgErrUndefinedColumn = "42703"
	pgErrUndefinedFunc   = "42883"
	pgErrQueryCanceled   = "57014"
)

// mapError translates pgx / pgconn native errors into *errs.Error.
// The kind is fixed by the phase the error happened in; SQLSTATE only
// enriches the message.
func mapError(err error, kind errs.ErrKind, msg string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return errs.Wrap(kind,
			fmt.Sprintf("%s: %s: %s (SQLSTATE %s)", msg, describe(pgErr.Code), pgErr.Message, pgErr.Code),
			err,
		)
	}

	return errs.Wrap(kind, msg, err)
}

func describe(code string) string {
	switch code {
	case pgErrSyntaxError:
		return "syntax error"
	case pgErrUndefinedTable:
		return "unknown table"
	case pgErrUndefinedColumn:
		return "unknown column"
	case pgErrUndefinedFunc:
		return "unknown function"
	case pgErrQueryCanceled:
		return "query canceled"
	}
	if len(code) >= 2 {
		switch code[:2] {
		case pgClassConnection:
			return "connection exception"
		case pgClassAuthorization:
			return "authorization failed"
		}
	}
	return "server error"
}
