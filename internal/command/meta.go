// Package command implements the querykit subcommands.
package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/koustreak/querykit/internal/config"
	"github.com/koustreak/querykit/internal/credential"
	"github.com/koustreak/querykit/internal/database"
	"github.com/koustreak/querykit/internal/database/mysql"
	"github.com/koustreak/querykit/internal/database/postgres"
	"github.com/koustreak/querykit/internal/database/sqlite"
	"github.com/koustreak/querykit/internal/errs"
	"github.com/koustreak/querykit/internal/logger"
	"github.com/mitchellh/cli"
)

// Meta carries what every command shares: the UI, the process context and
// the streams results and logs go to.
type Meta struct {
	Ui     cli.Ui
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer

	// Stdin is the terminal used for password prompts.
	Stdin *os.File
}

func (m *Meta) context() context.Context {
	if m.Ctx == nil {
		return context.Background()
	}
	return m.Ctx
}

// connectionFlags are accepted by every command that talks to a database.
// Set values override the config file and environment.
type connectionFlags struct {
	config    string
	driver    string
	dsn       string
	secretKey string
	password  string
	policy    string
	timeout   time.Duration
	oneShot   bool
	logLevel  string
	logFormat string
}

const connectionHelp = `
Connection Options:

  -config=<path>         YAML config file. QUERYKIT_* environment
                         variables override it.
  -driver=<name>         postgres, mysql or sqlite.
  -dsn=<template>        Connection string template, e.g.
                         "host=db user=app password={{.password}}".
  -secret-key=<name>     Placeholder the secret is bound to. Default: password.
  -password=<source>     env://VAR, file://PATH or string://VALUE. Left empty,
                         the password is prompted for when the template
                         needs one.
  -policy=<name>         reuse, fresh or once.
  -timeout=<duration>    Connection timeout, e.g. 10s.
  -one-shot              Allow a single successful query per session.
  -log-level=<level>     debug, info, warn or error.
  -log-format=<format>   json or console.
`

func (m *Meta) flagSet(name string, cf *connectionFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cf.config, "config", "", "")
	fs.StringVar(&cf.driver, "driver", "", "")
	fs.StringVar(&cf.dsn, "dsn", "", "")
	fs.StringVar(&cf.secretKey, "secret-key", "", "")
	fs.StringVar(&cf.password, "password", "", "")
	fs.StringVar(&cf.policy, "policy", "", "")
	fs.DurationVar(&cf.timeout, "timeout", 0, "")
	fs.BoolVar(&cf.oneShot, "one-shot", false, "")
	fs.StringVar(&cf.logLevel, "log-level", "", "")
	fs.StringVar(&cf.logFormat, "log-format", "", "")
	return fs
}

func (cf *connectionFlags) apply(cfg *config.Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Database.Driver, cf.driver)
	set(&cfg.Database.Template, cf.dsn)
	set(&cfg.Database.SecretKey, cf.secretKey)
	set(&cfg.Database.Policy, cf.policy)
	set(&cfg.Logging.Level, cf.logLevel)
	set(&cfg.Logging.Format, cf.logFormat)
	if cf.timeout > 0 {
		cfg.Database.TimeoutSeconds = int(cf.timeout.Round(time.Second) / time.Second)
		if cfg.Database.TimeoutSeconds == 0 {
			cfg.Database.TimeoutSeconds = 1
		}
	}
	if cf.oneShot {
		cfg.Database.OneShot = true
	}
}

// runtime is everything a command needs to execute queries.
type runtime struct {
	cfg  *config.Config
	log  *logger.Logger
	mgr  *database.Manager
	exec *database.Executor
}

// setup loads configuration, applies flag overrides and builds the
// connection manager. The caller owns closing rt.mgr.
func (m *Meta) setup(cf *connectionFlags) (*runtime, error) {
	cfg, err := config.Load(cf.config)
	if err != nil {
		return nil, err
	}
	cf.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lc := cfg.LoggerConfig()
	lc.Output = m.Stderr
	log := logger.New(lc)

	cc, err := cfg.ConnectionConfig()
	if err != nil {
		return nil, err
	}

	connector, err := connectorFor(cc.Driver)
	if err != nil {
		return nil, err
	}

	secrets, err := m.secrets(cc, cf.password)
	if err != nil {
		return nil, err
	}

	mgr, err := database.NewManager(m.context(), cc, connector, secrets, log)
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:  cfg,
		log:  log,
		mgr:  mgr,
		exec: database.NewExecutor(log, cfg.Database.OneShot),
	}, nil
}

// secrets picks the credential source. Templates that never reference the
// secret placeholder get an empty static secret so no prompt appears.
func (m *Meta) secrets(cc *database.ConnectionConfig, flagValue string) (credential.Provider, error) {
	fields, err := (&database.TemplateSpec{Text: cc.Template}).Fields()
	if err != nil {
		return nil, err
	}
	key := cc.SecretKey
	if key == "" {
		key = database.DefaultSecretKey
	}
	if flagValue == "" && !slices.Contains(fields, key) {
		return credential.Static(""), nil
	}
	return credential.FromFlag(flagValue, &credential.Prompt{In: m.Stdin, Out: m.Stderr})
}

func connectorFor(d database.Driver) (database.Connector, error) {
	switch d {
	case database.DriverPostgres:
		return postgres.Connector{}, nil
	case database.DriverMySQL:
		return mysql.Connector{}, nil
	case database.DriverSQLite:
		return sqlite.Connector{}, nil
	default:
		return nil, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unsupported driver %q", d))
	}
}

// fail reports err on the UI and returns the exit code for it.
func (m *Meta) fail(err error) int {
	m.Ui.Error(fmt.Sprintf("Error: %s", err))
	if param := errs.ParamOf(err); param != "" {
		m.Ui.Error(fmt.Sprintf("Hint: supply a value for %q with -set %s=...", param, param))
	}
	return 1
}

// usage reports a flag error and asks the CLI to print help.
func (m *Meta) usage(err error) int {
	m.Ui.Error(err.Error())
	return cli.RunResultHelp
}

func helpText(s string) string {
	return strings.TrimSpace(s)
}
