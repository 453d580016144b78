package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/koustreak/querykit/internal/errs"
)

// Driver identifies the database engine.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
	DriverSQLite   Driver = "sqlite"
)

// Policy is the reconnection policy a Manager commits to for its lifetime.
type Policy int

const (
	// PolicyReuse opens the connection on first use and keeps it open across
	// executions until the caller closes the manager.
	PolicyReuse Policy = iota

	// PolicyFresh opens a new connection for every execution and closes it
	// as soon as the execution returns.
	PolicyFresh

	// PolicyOnce connects when the manager is constructed. Once closed, the
	// manager cannot be reopened.
	PolicyOnce
)

func (p Policy) String() string {
	switch p {
	case PolicyReuse:
		return "reuse"
	case PolicyFresh:
		return "fresh"
	case PolicyOnce:
		return "once"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy maps a config string to a Policy. Empty means PolicyReuse.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reuse":
		return PolicyReuse, nil
	case "fresh":
		return PolicyFresh, nil
	case "once":
		return PolicyOnce, nil
	default:
		return 0, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unknown connection policy %q", s))
	}
}

const (
	// DefaultSecretKey is the placeholder name the connection template uses
	// for the secret unless ConnectionConfig.SecretKey overrides it.
	DefaultSecretKey = "password"

	defaultTimeout = 30 * time.Second
)

// ConnectionConfig holds everything a Manager needs to open its connection.
// A Manager copies the config at construction; later edits have no effect.
type ConnectionConfig struct {
	// Driver is the database engine (e.g. DriverPostgres).
	Driver Driver

	// Template is the connection string with one placeholder for the secret.
	// Example: "host=db port=5432 user=app password={{.password}} dbname=sales"
	Template string

	// SecretKey names the secret placeholder in Template.
	SecretKey string

	// Timeout bounds connection establishment. Must be positive.
	Timeout time.Duration

	// Policy is the reconnection policy (see Policy).
	Policy Policy
}

// DefaultConfig returns a reuse-policy config for the given driver and template.
func DefaultConfig(driver Driver, template string) *ConnectionConfig {
	return &ConnectionConfig{
		Driver:    driver,
		Template:  template,
		SecretKey: DefaultSecretKey,
		Timeout:   defaultTimeout,
		Policy:    PolicyReuse,
	}
}

// Validate checks the config for caller errors that can be detected without
// touching the database.
func (c *ConnectionConfig) Validate() error {
	switch c.Driver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unsupported driver %q", c.Driver))
	}
	if strings.TrimSpace(c.Template) == "" {
		return errs.New(errs.ErrKindInvalidInput, "connection template is empty")
	}
	if c.Timeout <= 0 {
		return errs.New(errs.ErrKindInvalidInput, "connection timeout must be positive")
	}
	switch c.Policy {
	case PolicyReuse, PolicyFresh, PolicyOnce:
	default:
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unknown connection policy %d", int(c.Policy)))
	}
	return nil
}

func (c *ConnectionConfig) secretKey() string {
	if c.SecretKey == "" {
		return DefaultSecretKey
	}
	return c.SecretKey
}
