// Package notify delivers transient user-facing messages (the console's
// toasts) to pluggable sinks without blocking the caller.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Level is the severity of a message.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Message is a single notification.
type Message struct {
	Level Level
	Text  string
	At    time.Time
}

// Sink receives delivered messages.
type Sink interface {
	Deliver(ctx context.Context, msg Message) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, msg Message) error

func (f SinkFunc) Deliver(ctx context.Context, msg Message) error { return f(ctx, msg) }

const defaultBuffer = 64

// Bus fans messages out to its sinks on a background goroutine. Publishing
// never blocks: when the buffer is full the message is dropped and logged.
type Bus struct {
	sinks  []Sink
	logger *slog.Logger
	queue  chan envelope
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

type envelope struct {
	ctx   context.Context
	msg   Message
	flush chan struct{}
}

// NewBus starts a bus delivering to sinks in order.
func NewBus(logger *slog.Logger, sinks ...Sink) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bus{
		sinks:  sinks,
		logger: logger,
		queue:  make(chan envelope, defaultBuffer),
		done:   make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Bus) run() {
	defer close(b.done)
	for env := range b.queue {
		if env.flush != nil {
			close(env.flush)
			continue
		}
		for _, s := range b.sinks {
			if err := s.Deliver(env.ctx, env.msg); err != nil {
				b.logger.WarnContext(env.ctx, "notification sink failed",
					slog.String("kind", string(env.msg.Level)),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// Publish enqueues msg. It is safe on a nil or closed Bus.
func (b *Bus) Publish(ctx context.Context, msg Message) {
	if b == nil || msg.Text == "" {
		return
	}
	if msg.At.IsZero() {
		msg.At = time.Now()
	}
	// Sinks run after the caller has moved on; keep values, drop deadlines.
	env := envelope{ctx: context.WithoutCancel(ctx), msg: msg}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	select {
	case b.queue <- env:
	default:
		b.logger.WarnContext(ctx, "notification dropped, buffer full", slog.String("text", msg.Text))
	}
}

// Success publishes a success message.
func (b *Bus) Success(ctx context.Context, text string) {
	b.Publish(ctx, Message{Level: LevelSuccess, Text: text})
}

// Error publishes an error message.
func (b *Bus) Error(ctx context.Context, text string) {
	b.Publish(ctx, Message{Level: LevelError, Text: text})
}

// Info publishes an informational message.
func (b *Bus) Info(ctx context.Context, text string) {
	b.Publish(ctx, Message{Level: LevelInfo, Text: text})
}

// Flush waits until every message published before the call is delivered
// or ctx is done.
func (b *Bus) Flush(ctx context.Context) error {
	if b == nil {
		return nil
	}
	marker := make(chan struct{})

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return nil
	}
	select {
	case b.queue <- envelope{flush: marker}:
		b.mu.RUnlock()
	case <-ctx.Done():
		b.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case <-marker:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close delivers what is queued and stops the worker.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()

	<-b.done
}
