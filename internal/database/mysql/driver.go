// Package mysql connects querykit to MySQL through go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/koustreak/querykit/internal/database"
	"github.com/koustreak/querykit/internal/database/sqldb"
	"github.com/koustreak/querykit/internal/errs"
)

// Connector opens single MySQL connections.
//
// The DSN uses the go-sql-driver format, e.g.
// "app:{{.password}}@tcp(db:3306)/sales".
type Connector struct{}

// Connect parses dsn, applies timeout as the dial timeout and pins one
// connection.
func (Connector) Connect(ctx context.Context, dsn string, timeout time.Duration) (database.Conn, error) {
	cfg, err := configure(dsn, timeout)
	if err != nil {
		// The parse error can echo the DSN, which holds the secret.
		return nil, errs.New(errs.ErrKindConnectionFailed, "invalid mysql DSN")
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, mapError(err, errs.ErrKindConnectionFailed, "invalid mysql config")
	}

	return sqldb.Open(ctx, sql.OpenDB(connector), sqlx.QUESTION, mapError)
}

// configure parses dsn and caps the dial timeout at timeout.
func configure(dsn string, timeout time.Duration) (*mysql.Config, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout == 0 || cfg.Timeout > timeout {
		cfg.Timeout = timeout
	}
	cfg.ParseTime = true
	return cfg, nil
}
