package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/relaydb/relay/internal/dialect"
	"github.com/relaydb/relay/internal/driver"
)

// Conn is a scripted in-memory Connection. Exec decides each statement's
// outcome; the connection records every SQL text it sees plus the
// transaction calls, so tests can assert on exact sequences.
type Conn struct {
	// Exec scripts ExecuteRaw. When nil every statement succeeds with an
	// empty result.
	Exec func(sql string) (*driver.Result, error)

	// DialectValue defaults to dialect.Generic.
	DialectValue dialect.Dialect

	BeginErr  error
	CommitErr error

	mu        sync.Mutex
	Executed  []string
	Begun     int
	Committed int
	RolledBck int
	Closed    bool
	inTx      bool
}

var _ driver.Connection = (*Conn)(nil)

func (c *Conn) Begin(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.BeginErr != nil {
		return c.BeginErr
	}
	if c.inTx {
		return fmt.Errorf("transaction already open")
	}
	c.inTx = true
	c.Begun++
	return nil
}

func (c *Conn) Commit(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.CommitErr != nil {
		return c.CommitErr
	}
	if !c.inTx {
		return fmt.Errorf("no open transaction")
	}
	c.inTx = false
	c.Committed++
	return nil
}

func (c *Conn) Rollback(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.inTx {
		return nil
	}
	c.inTx = false
	c.RolledBck++
	return nil
}

func (c *Conn) ExecuteRaw(_ context.Context, sql string) (*driver.Result, error) {
	c.mu.Lock()
	c.Executed = append(c.Executed, sql)
	exec := c.Exec
	c.mu.Unlock()

	if exec == nil {
		return &driver.Result{}, nil
	}
	return exec(sql)
}

func (c *Conn) Dialect() dialect.Dialect {
	if c.DialectValue.Name == "" {
		return dialect.Generic
	}
	return c.DialectValue
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
	return nil
}

// Provider hands out a fixed connection, counting acquisitions and
// releases.
type Provider struct {
	Conn       driver.Connection
	AcquireErr error

	mu       sync.Mutex
	Acquired int
	Released int
}

var _ driver.ConnectionProvider = (*Provider)(nil)

func (p *Provider) Acquire(context.Context) (driver.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.AcquireErr != nil {
		return nil, p.AcquireErr
	}
	p.Acquired++
	return p.Conn, nil
}

func (p *Provider) Release(driver.Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Released++
}

func (p *Provider) Close() error { return nil }
