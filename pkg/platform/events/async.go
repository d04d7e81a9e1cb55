package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultAsyncBuffer  = 256
	defaultAsyncTimeout = 5 * time.Second
)

var (
	// ErrBufferFull is returned when the queue is full and the event was dropped.
	ErrBufferFull = errors.New("event buffer full")
	// ErrClosed is returned by Publish after Close.
	ErrClosed = errors.New("event publisher closed")
)

// Async queues events and hands them to the wrapped publisher from a single
// worker, so callers never wait on the broker. Each delivery gets its own
// timeout detached from the caller's context. A single worker keeps events
// in submission order.
type Async struct {
	next    Publisher
	logger  *slog.Logger
	timeout time.Duration
	inbox   chan queued
	done    chan struct{}

	mu      sync.Mutex
	idle    *sync.Cond
	pending int
	closed  bool
}

type queued struct {
	ctx   context.Context
	event Event
}

type AsyncOption func(*Async)

func WithAsyncLogger(logger *slog.Logger) AsyncOption {
	return func(a *Async) {
		a.logger = logger
	}
}

// WithBuffer sets how many events may wait for the worker.
func WithBuffer(n int) AsyncOption {
	return func(a *Async) {
		if n > 0 {
			a.inbox = make(chan queued, n)
		}
	}
}

// WithPublishTimeout bounds each delivery to the wrapped publisher.
func WithPublishTimeout(d time.Duration) AsyncOption {
	return func(a *Async) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// NewAsync starts the worker. Call Close to drain it.
func NewAsync(next Publisher, opts ...AsyncOption) *Async {
	a := &Async{
		next:    next,
		logger:  slog.Default(),
		timeout: defaultAsyncTimeout,
		inbox:   make(chan queued, defaultAsyncBuffer),
		done:    make(chan struct{}),
	}
	a.idle = sync.NewCond(&a.mu)
	for _, opt := range opts {
		opt(a)
	}
	go a.run()
	return a
}

// Publish enqueues event without blocking. Context values (request id) are
// kept for the delivery, its cancellation is not.
func (a *Async) Publish(ctx context.Context, event Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.inbox <- queued{ctx: context.WithoutCancel(ctx), event: event}:
		a.pending++
		return nil
	default:
		return ErrBufferFull
	}
}

// Flush blocks until every queued event has been handed to the wrapped
// publisher.
func (a *Async) Flush() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for a.pending > 0 {
		a.idle.Wait()
	}
}

// Close stops accepting events and waits for the queue to drain.
func (a *Async) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		<-a.done
		return
	}
	a.closed = true
	close(a.inbox)
	a.mu.Unlock()
	<-a.done
}

func (a *Async) run() {
	defer close(a.done)
	for q := range a.inbox {
		a.deliver(q)
		a.mu.Lock()
		a.pending--
		if a.pending == 0 {
			a.idle.Broadcast()
		}
		a.mu.Unlock()
	}
}

func (a *Async) deliver(q queued) {
	ctx, cancel := context.WithTimeout(q.ctx, a.timeout)
	defer cancel()
	if err := a.next.Publish(ctx, q.event); err != nil {
		a.logger.WarnContext(ctx, "failed to publish engagement event",
			"request_id", q.event.RequestID,
			"citizen_id", q.event.CitizenID,
			"event_type", string(q.event.Type),
			"error", err,
		)
	}
}
