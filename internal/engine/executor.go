package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/relaydb/relay/internal/chain"
	"github.com/relaydb/relay/internal/driver"
	"github.com/relaydb/relay/internal/render"
)

// Executor runs chains against connections obtained from the driver
// registry. Providers are cached per connection profile, so repeated
// executions of the same command reuse pooled connections.
//
// An Executor is safe for concurrent use: distinct chains run on distinct
// connections. One chain is always serial.
type Executor struct {
	log *slog.Logger

	poolDefaults driver.Config

	mu        sync.Mutex
	providers map[driver.Config]driver.ConnectionProvider
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger routes executor logging to l instead of slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.log = l }
}

// WithPoolDefaults sets the pool and retry policy applied to every
// provider the executor opens.
func WithPoolDefaults(maxConnections, maxRetries int, retryInterval time.Duration) Option {
	return func(e *Executor) {
		e.poolDefaults.MaxConnections = maxConnections
		e.poolDefaults.MaxRetries = maxRetries
		e.poolDefaults.RetryInterval = retryInterval
	}
}

// New creates an Executor.
func New(opts ...Option) *Executor {
	e := &Executor{
		log:       slog.Default(),
		providers: make(map[driver.Config]driver.ConnectionProvider),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Close releases every cached provider and its pooled connections.
func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	for cfg, p := range e.providers {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(e.providers, cfg)
	}
	return firstErr
}

// Execute opens (or reuses) a provider for the command's credentials,
// acquires a connection, and runs the chain on it. The overrides map is
// the variable lookup of last resort after the command's own properties.
func (e *Executor) Execute(ctx context.Context, cmd *chain.Command, overrides map[string]any) error {
	cfg := e.configFor(cmd)

	provider, err := e.provider(cfg)
	if err != nil {
		e.log.Error("Can't open DB: "+cmd.Software, "error", err)
		return &ChainError{Code: ErrCodeConnect, Message: "open provider", Err: err}
	}

	conn, err := provider.Acquire(ctx)
	if err != nil {
		e.log.Error("Can't open DB: "+cmd.Software, "error", err)
		return &ChainError{Code: ErrCodeConnect, Message: "acquire connection", Err: err}
	}
	defer provider.Release(conn)

	return e.ExecuteOn(ctx, cmd, conn, overrides)
}

// ExecuteOn runs the chain on an already-acquired connection. The caller
// keeps ownership of the connection.
//
// State machine: Fresh → Begin → Resolving → Executing → Committing →
// Done, with a single absorbing abort path that always rolls back.
func (e *Executor) ExecuteOn(ctx context.Context, cmd *chain.Command, conn driver.Connection, overrides map[string]any) error {
	if err := conn.Begin(ctx); err != nil {
		e.log.Error("Can't start transaction", "error", err)
		return &ChainError{Code: ErrCodeBegin, Message: "begin transaction", Err: err}
	}
	e.log.Info("Started transaction")

	committed := false
	defer func() {
		if !committed {
			_ = conn.Rollback(ctx)
		}
	}()

	e.resolveVariables(ctx, cmd, conn, overrides)

	for _, s := range cmd.Statements {
		if s.IsVariableStatement() {
			// Variable statements only run during the binding pass.
			continue
		}
		if err := e.executeStatement(ctx, cmd, conn, s); err != nil {
			return err
		}
	}

	if err := conn.Commit(ctx); err != nil {
		e.log.Info("Commit transaction: FAILED")
		return &ChainError{Code: ErrCodeCommit, Message: "commit transaction", Err: err}
	}
	committed = true
	e.log.Info("Commit transaction: OK")
	return nil
}

// executeStatement renders and runs one main-pass statement, then fills
// its result slots.
func (e *Executor) executeStatement(ctx context.Context, cmd *chain.Command, conn driver.Connection, s *chain.Statement) error {
	executed := executedStatements(cmd)

	r, err := render.Statement(s, conn.Dialect(), executed)
	if err != nil {
		e.log.Error("Can't build SQL: "+s.Describe(), "error", err)
		return &ChainError{Code: ErrCodeBuild, Message: "render statement", SQLID: s.SQLID, Err: err}
	}

	res, err := conn.ExecuteRaw(ctx, r.SQL)
	if err != nil {
		e.log.Error("SQL failed: "+s.Describe(), "sql", r.SQL, "error", err)
		return &ChainError{Code: ErrCodeExecute, Message: "execute statement", SQLID: s.SQLID, Err: err}
	}

	s.RenderedSQL = r.SQL
	s.Results = res.Rows
	s.LastID = ResolveLastID(res.LastID, s, r.Named, executed)
	s.Executed = true

	e.log.Info("SQL executed: "+s.Describe(), "sql", r.SQL)
	return nil
}

// configFor merges the command's credentials with the executor's pool
// defaults.
func (e *Executor) configFor(cmd *chain.Command) driver.Config {
	cfg := e.poolDefaults
	cfg.Software = cmd.Software
	cfg.Host = cmd.Host
	cfg.Port = cmd.Port
	cfg.User = cmd.User
	cfg.Pass = cmd.Pass
	cfg.Database = cmd.Database
	return cfg
}

// provider returns the cached provider for cfg, creating it on first use.
func (e *Executor) provider(cfg driver.Config) (driver.ConnectionProvider, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p, ok := e.providers[cfg]; ok {
		return p, nil
	}
	p, err := driver.New(cfg)
	if err != nil {
		return nil, err
	}
	e.providers[cfg] = p
	return p, nil
}

// executedStatements returns the statements that have run so far, in
// declaration order. Back-references resolve against this prefix only, so
// a forward reference yields null.
func executedStatements(cmd *chain.Command) []*chain.Statement {
	var out []*chain.Statement
	for _, s := range cmd.Statements {
		if s.Executed {
			out = append(out, s)
		}
	}
	return out
}
