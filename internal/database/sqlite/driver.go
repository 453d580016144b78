// Package sqlite connects querykit to SQLite files through the pure-Go
// modernc.org/sqlite driver. It needs no secret; the connection template is
// usually just a path such as "file:reports.db?mode=ro".
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/koustreak/querykit/internal/database"
	"github.com/koustreak/querykit/internal/database/sqldb"
	"github.com/koustreak/querykit/internal/errs"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

const driverName = "sqlite"

// Connector opens single SQLite connections.
type Connector struct{}

// Connect opens dsn and sets the busy timeout to timeout.
func (Connector) Connect(ctx context.Context, dsn string, timeout time.Duration) (database.Conn, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to open sqlite database", err)
	}

	conn, err := sqldb.Open(ctx, db, sqlx.QUESTION, nil)
	if err != nil {
		return nil, err
	}

	busy := fmt.Sprintf("PRAGMA busy_timeout = %d", timeout.Milliseconds())
	rows, err := conn.Query(ctx, busy)
	if err != nil {
		_ = conn.Close(ctx)
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to set busy timeout", err)
	}
	rows.Close()

	return conn, nil
}
