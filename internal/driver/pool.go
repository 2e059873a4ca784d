package driver

import (
	"context"
	"sync"
)

// DialFunc opens one new connection. Connect retries live in the dial
// function (the factory supplies them), not in the pool.
type DialFunc func(ctx context.Context) (Connection, error)

// Pool is a bounded FIFO store of idle connections. Acquire hands out the
// oldest idle connection or dials a fresh one; Release keeps the
// connection if the pool is under capacity and closes it otherwise.
//
// The idle store is a buffered channel, which gives FIFO order and
// thread-safety in one move.
type Pool struct {
	idle chan Connection
	dial DialFunc

	mu     sync.Mutex
	closed bool
}

// NewPool creates a pool keeping at most capacity idle connections.
func NewPool(capacity int, dial DialFunc) *Pool {
	if capacity <= 0 {
		capacity = DefaultMaxConnections
	}
	return &Pool{
		idle: make(chan Connection, capacity),
		dial: dial,
	}
}

// Acquire returns an idle connection when one is available, otherwise
// dials a new one.
func (p *Pool) Acquire(ctx context.Context) (Connection, error) {
	select {
	case conn := <-p.idle:
		return conn, nil
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.dial(ctx)
}

// Release returns a connection to the idle store, closing it when the
// store is full or the pool is closed.
func (p *Pool) Release(conn Connection) {
	if conn == nil {
		return
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		_ = conn.Close()
		return
	}

	select {
	case p.idle <- conn:
	default:
		_ = conn.Close()
	}
}

// Close closes every idle connection. Connections currently checked out
// are closed by their holders on Release.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	for {
		select {
		case conn := <-p.idle:
			_ = conn.Close()
		default:
			return nil
		}
	}
}
