package database

import (
	"context"
	"fmt"

	"github.com/koustreak/querykit/internal/credential"
	"github.com/koustreak/querykit/internal/errs"
	"github.com/koustreak/querykit/internal/logger"
)

// State is the lifecycle state of a Manager.
type State int

const (
	StateUnconnected State = iota
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnconnected:
		return "unconnected"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Manager owns the single driver connection of one logical session and the
// state machine Unconnected → Connected → Closed around it. Closed managers
// may be reopened unless the policy is PolicyOnce.
//
// A Manager is single-owner: it must not be used from several goroutines
// without external locking.
type Manager struct {
	cfg       ConnectionConfig
	connector Connector
	secrets   *credential.Cache
	log       *logger.Logger

	state State
	conn  Conn
	gen   uint64 // bumped on every successful open; invalidates older handles
}

// NewManager validates cfg and returns a Manager. With PolicyOnce it connects
// immediately and returns the connection error, if any.
//
// secrets may be nil for drivers whose connection string carries no secret.
// The secret is fetched on first open and reused for the manager's lifetime,
// so interactive providers prompt at most once per session.
func NewManager(ctx context.Context, cfg *ConnectionConfig, connector Connector, secrets credential.Provider, log *logger.Logger) (*Manager, error) {
	if cfg == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, "connection config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if connector == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, "connector is nil")
	}
	if secrets == nil {
		secrets = credential.Static("")
	}

	log = logger.OrNop(log).With().
		Str("driver", string(cfg.Driver)).
		Str("policy", cfg.Policy.String()).
		Logger()

	m := &Manager{
		cfg:       *cfg,
		connector: connector,
		secrets:   credential.NewCache(secrets),
		log:       log,
	}

	if m.cfg.Policy == PolicyOnce {
		if _, err := m.Open(ctx); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State { return m.state }

// Policy returns the reconnection policy the manager committed to.
func (m *Manager) Policy() Policy { return m.cfg.Policy }

// Open connects if necessary and returns a handle to the live connection.
// Opening an already connected manager returns the existing connection.
// Every failure (secret retrieval, connection string rendering, driver
// connect) is reported as ErrKindConnectionFailed wrapping the cause.
// Open never retries.
func (m *Manager) Open(ctx context.Context) (*Handle, error) {
	switch m.state {
	case StateConnected:
		return m.handle(), nil
	case StateClosed:
		if m.cfg.Policy == PolicyOnce {
			return nil, errs.New(errs.ErrKindConnectionFailed, "single-connect manager has been closed and cannot reopen")
		}
	}

	secret, err := m.secrets.Secret()
	if err != nil {
		return nil, m.connectErr("failed to obtain secret", err)
	}

	dsn, err := render("dsn", m.cfg.Template, map[string]any{m.cfg.secretKey(): secret})
	if err != nil {
		return nil, m.connectErr("failed to render connection string", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	conn, err := m.connector.Connect(connectCtx, dsn, m.cfg.Timeout)
	if err != nil {
		return nil, m.connectErr("failed to connect", err)
	}

	m.conn = conn
	m.state = StateConnected
	m.gen++
	m.log.Info("connection opened")
	return m.handle(), nil
}

// Close releases the connection and moves the manager to Closed. It is a
// no-op on a manager that is not connected, so calling it twice, or before
// any Open, never fails.
func (m *Manager) Close(ctx context.Context) error {
	if m.state != StateConnected {
		return nil
	}

	conn := m.conn
	m.conn = nil
	m.state = StateClosed

	if err := conn.Close(ctx); err != nil {
		m.log.ErrorWith("connection close failed", err, nil)
		return errs.Wrap(errs.ErrKindConnectionFailed, "failed to close connection", err)
	}
	m.log.Info("connection closed")
	return nil
}

// Ping checks the live connection.
func (m *Manager) Ping(ctx context.Context) error {
	if m.state != StateConnected {
		return errs.New(errs.ErrKindNotConnected, "ping on a manager that is not connected")
	}
	if err := m.conn.Ping(ctx); err != nil {
		return errs.Wrap(errs.ErrKindConnectionFailed, "ping failed", err)
	}
	return nil
}

// With opens the connection, runs fn, and closes the connection on every exit
// path: normal return, error, or panic. A close failure is returned only when
// fn itself succeeded.
func (m *Manager) With(ctx context.Context, fn func(h *Handle) error) (err error) {
	h, err := m.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(h)
}

// Acquire returns a handle for one execution together with the release
// function the caller must invoke once the execution returns:
//
//   - PolicyReuse opens lazily; release is a no-op.
//   - PolicyFresh always opens a new connection; release closes it.
//   - PolicyOnce never opens; a closed manager fails with ErrKindNotConnected.
func (m *Manager) Acquire(ctx context.Context) (*Handle, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	switch m.cfg.Policy {
	case PolicyFresh:
		if err := m.Close(ctx); err != nil {
			return nil, nil, err
		}
		h, err := m.Open(ctx)
		if err != nil {
			return nil, nil, err
		}
		return h, m.Close, nil
	case PolicyOnce:
		if m.state != StateConnected {
			return nil, nil, errs.New(errs.ErrKindNotConnected, "single-connect manager is closed")
		}
		return m.handle(), noop, nil
	default:
		h, err := m.Open(ctx)
		if err != nil {
			return nil, nil, err
		}
		return h, noop, nil
	}
}

func (m *Manager) handle() *Handle {
	return &Handle{m: m, gen: m.gen}
}

func (m *Manager) connectErr(msg string, cause error) error {
	m.log.ErrorWith(msg, cause, nil)
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, cause)
}

// Handle is the capability to run queries on a Manager's connection.
// It never exposes the driver connection itself. A handle goes stale once
// its manager closes, even if the manager is later reopened.
type Handle struct {
	m   *Manager
	gen uint64
}

// Connected reports whether the handle still refers to a live connection.
func (h *Handle) Connected() bool {
	return h != nil && h.m != nil && h.m.state == StateConnected && h.m.gen == h.gen
}

func (h *Handle) conn() Conn {
	return h.m.conn
}
