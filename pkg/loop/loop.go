// Package loop runs tasks one at a time on a single goroutine.
//
// A reactive graph is single-threaded. Code on other goroutines (network
// readers, timers) posts closures to the graph's Loop instead of touching it
// directly; the loop runs each to completion before taking the next.
package loop

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

var (
	// ErrClosed is returned when posting to a loop that has stopped.
	ErrClosed = errors.New("loop: closed")

	// ErrQueueFull is returned by TryPost when the queue has no room.
	ErrQueueFull = errors.New("loop: queue full")
)

// DefaultQueueSize is the task queue capacity.
const DefaultQueueSize = 256

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the loop logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithQueueSize sets the task queue capacity.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.size = n
		}
	}
}

// Loop serializes tasks onto one goroutine.
type Loop struct {
	tasks  chan func()
	done   chan struct{}
	once   sync.Once
	size   int
	logger *slog.Logger
}

// New creates a loop. Call Run to start processing.
func New(opts ...Option) *Loop {
	l := &Loop{
		done:   make(chan struct{}),
		size:   DefaultQueueSize,
		logger: slog.Default().With("component", "loop"),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.tasks = make(chan func(), l.size)
	return l
}

// Run processes tasks until ctx is cancelled or Close is called. A panicking
// task is logged and does not stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	defer l.Close()
	for {
		select {
		case fn := <-l.tasks:
			l.execute(fn)

		case <-ctx.Done():
			return ctx.Err()

		case <-l.done:
			return nil
		}
	}
}

func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

// Post queues fn, blocking while the queue is full.
func (l *Loop) Post(ctx context.Context, fn func()) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPost queues fn without blocking.
func (l *Loop) TryPost(fn func()) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	default:
		return ErrQueueFull
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	err := l.Post(ctx, func() {
		defer close(finished)
		fn()
	})
	if err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Every posts fn every interval until the returned stop function is called
// or the loop closes. Ticks that find the queue full are dropped.
func (l *Loop) Every(interval time.Duration, fn func()) (stop func()) {
	ticker := time.NewTicker(interval)
	quit := make(chan struct{})
	var stopOnce sync.Once
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := l.TryPost(fn); errors.Is(err, ErrQueueFull) {
					l.logger.Warn("interval task dropped", "interval", interval)
				}
			case <-quit:
				return
			case <-l.done:
				return
			}
		}
	}()
	return func() { stopOnce.Do(func() { close(quit) }) }
}

// Close stops the loop. Queued tasks that have not started are dropped.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
}

// Done is closed when the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
