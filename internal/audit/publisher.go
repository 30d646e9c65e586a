// Package audit publishes the append-only trail of membership, voucher and
// volunteer changes. Sinks decide where events land: memory for tests, the log
// stream by default, Kafka when brokers are configured.
package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"moniftar/pkg/requestcontext"
)

// ErrClosed is returned by Emit after Close.
var ErrClosed = errors.New("audit publisher closed")

// Sink persists or forwards events.
type Sink interface {
	Append(ctx context.Context, e Event) error
}

// Publisher enriches events from the request context and hands them to a
// Sink, synchronously or through a bounded buffer.
type Publisher struct {
	sink   Sink
	logger *slog.Logger

	// mu orders sends on inbox against Close.
	mu      sync.RWMutex
	closed  bool
	inbox   chan Event
	wg      sync.WaitGroup
	dropped atomic.Int64
}

type Option func(*Publisher)

// WithAsyncBuffer decouples Emit from the sink. A full buffer drops the event.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.inbox = make(chan Event, size)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func NewPublisher(sink Sink, opts ...Option) *Publisher {
	p := &Publisher{sink: sink, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, e Event) error {
	e = p.enrich(ctx, e)
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrClosed
	}
	if p.inbox == nil {
		p.mu.RUnlock()
		return p.sink.Append(ctx, e)
	}
	select {
	case p.inbox <- e:
		p.mu.RUnlock()
		return nil
	default:
		p.mu.RUnlock()
		p.dropped.Add(1)
		p.logger.WarnContext(ctx, "audit buffer full, event dropped",
			"action", e.Action, "request_id", e.RequestID)
		return nil
	}
}

// Dropped reports events lost to a full buffer.
func (p *Publisher) Dropped() int64 { return p.dropped.Load() }

// Close stops accepting events and waits for the buffer to drain.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.inbox != nil {
		close(p.inbox)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Publisher) enrich(ctx context.Context, e Event) Event {
	if e.Timestamp.IsZero() {
		e.Timestamp = requestcontext.Now(ctx)
	}
	if e.RequestID == "" {
		e.RequestID = requestcontext.RequestID(ctx)
	}
	if e.ActorID == "" {
		if vol := requestcontext.VolunteerID(ctx); !vol.IsNil() {
			e.ActorID = vol.String()
		}
	}
	if e.ClientIP == "" {
		e.ClientIP = requestcontext.ClientIP(ctx)
	}
	if e.Device == "" {
		e.Device = requestcontext.Device(ctx)
	}
	return e
}

// drain runs until Close; inbox events are appended with a detached context.
func (p *Publisher) drain() {
	defer p.wg.Done()
	for e := range p.inbox {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.sink.Append(ctx, e); err != nil {
			p.logger.Error("audit sink append failed", "action", e.Action, "error", err)
		}
		cancel()
	}
}
