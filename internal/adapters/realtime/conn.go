package realtime

import (
	"context"
	"sync"
)

// Default connection buffer size.
const defaultPipeBuffer = 64

// Conn is one participant's persistent, message-oriented connection as
// the hub sees it. Implementations must make Send safe for concurrent
// use; delivery is best-effort and at-most-once.
type Conn interface {
	// Send queues an envelope for delivery. It never blocks on a slow
	// peer; a full buffer or closed connection returns an error.
	Send(ctx context.Context, env Envelope) error

	// Close tears the connection down. Closing twice is harmless.
	Close() error
}

// Pipe is an in-process Conn backed by a buffered channel. It stands in
// for a network connection in tests and in the session simulator.
type Pipe struct {
	ch     chan Envelope
	mu     sync.Mutex
	closed bool
}

// NewPipe creates a Pipe with the default buffer.
func NewPipe() *Pipe {
	return NewPipeSize(defaultPipeBuffer)
}

// NewPipeSize creates a Pipe with an explicit buffer size.
func NewPipeSize(size int) *Pipe {
	if size < 1 {
		size = 1
	}
	return &Pipe{ch: make(chan Envelope, size)}
}

// Send implements Conn.
func (p *Pipe) Send(ctx context.Context, env Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrConnClosed
	}

	select {
	case p.ch <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrSendBuffer
	}
}

// Receive exposes the delivery channel. It is closed when the pipe is.
func (p *Pipe) Receive() <-chan Envelope {
	return p.ch
}

// Close implements Conn.
func (p *Pipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	close(p.ch)
	return nil
}

// Drain returns everything currently buffered without blocking.
func (p *Pipe) Drain() []Envelope {
	var out []Envelope
	for {
		select {
		case env, ok := <-p.ch:
			if !ok {
				return out
			}
			out = append(out, env)
		default:
			return out
		}
	}
}
