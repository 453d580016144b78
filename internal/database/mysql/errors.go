package mysql

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/koustreak/querykit/internal/errs"
)

// MySQL error numbers
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errDBAccessDenied  = 1044
	errAccessDenied    = 1045
	errNoDatabase      = 1046
	errUnknownDatabase = 1049
	errBadFieldError   = 1054
	errSyntaxError     = 1064
	errNoSuchTable     = 1146
	errTooManyConns    = 1040
	errUserTooManyConn = 1203
)

// mapError translates go-sql-driver/mysql errors into *errs.Error.
// The kind is fixed by the phase the error happened in; the server error
// number only enriches the message.
func mapError(err error, kind errs.ErrKind, msg string) error {
	if err == nil {
		return nil
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return errs.Wrap(kind,
			fmt.Sprintf("%s: %s: %s", msg, describe(mysqlErr.Number), mysqlErr.Message),
			err,
		)
	}

	return errs.Wrap(kind, msg, err)
}

// describe gives a short category for a MySQL error number.
func describe(code uint16) string {
	switch code {
	case errDBAccessDenied, errAccessDenied:
		return "access denied"
	case errNoDatabase, errUnknownDatabase:
		return "unknown database"
	case errTooManyConns, errUserTooManyConn:
		return "too many connections"
	case errBadFieldError:
		return "unknown column"
	case errSyntaxError:
		return "syntax error"
	case errNoSuchTable:
		return "unknown table"
	default:
		return fmt.Sprintf("error %d", code)
	}
}
