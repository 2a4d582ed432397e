package query

import (
	"context"
	"sync"
	"time"
)

// Callbacks run after a mutation settles. Any may be nil.
type Callbacks[In, Out any] struct {
	OnSuccess func(ctx context.Context, out Out, in In)
	OnError   func(ctx context.Context, err error, in In)
	OnSettled func(ctx context.Context, out Out, err error, in In)
}

// MutationOptions configures a Mutation.
type MutationOptions[In, Out any] struct {
	// Invalidate lists the key prefixes invalidated on every success.
	Invalidate []Key
	// InvalidateFor adds prefixes that depend on the call.
	InvalidateFor func(in In, out Out) []Key
	// Defaults run before the callbacks passed to Mutate.
	Defaults Callbacks[In, Out]
}

// MutationState describes the most recent call of a mutation.
type MutationState struct {
	Status Status
	// Error is the last failure. It stays until the next call.
	Error     error
	UpdatedAt time.Time
	Pending   int
}

// Mutation is a write operation. Each call executes exactly once; it is
// never retried.
type Mutation[In, Out any] struct {
	client *Client
	fn     func(ctx context.Context, in In) (Out, error)
	opts   MutationOptions[In, Out]

	mu    sync.Mutex
	state MutationState
}

// NewMutation binds fn to the cache c.
func NewMutation[In, Out any](c *Client, fn func(ctx context.Context, in In) (Out, error), opts MutationOptions[In, Out]) *Mutation[In, Out] {
	return &Mutation[In, Out]{
		client: c,
		fn:     fn,
		opts:   opts,
		state:  MutationState{Status: StatusIdle},
	}
}

// Mutate runs the operation. On success it first invalidates the declared
// prefixes, then runs the default OnSuccess, then each caller OnSuccess. On
// failure the default OnError runs, then each caller OnError. OnSettled
// follows in the same order either way.
func (m *Mutation[In, Out]) Mutate(ctx context.Context, in In, callbacks ...Callbacks[In, Out]) (Out, error) {
	m.mu.Lock()
	m.state.Pending++
	m.state.Status = StatusPending
	m.state.Error = nil
	m.mu.Unlock()

	out, err := m.fn(ctx, in)

	if err == nil {
		keys := append([]Key(nil), m.opts.Invalidate...)
		if m.opts.InvalidateFor != nil {
			keys = append(keys, m.opts.InvalidateFor(in, out)...)
		}
		if m.client != nil && len(keys) > 0 {
			m.client.Invalidate(keys...)
		}
	}

	m.mu.Lock()
	m.state.Pending--
	m.state.UpdatedAt = time.Now()
	if err != nil {
		m.state.Status = StatusError
		m.state.Error = err
	} else {
		m.state.Status = StatusSuccess
	}
	m.mu.Unlock()

	all := append([]Callbacks[In, Out]{m.opts.Defaults}, callbacks...)
	if err == nil {
		for _, cb := range all {
			if cb.OnSuccess != nil {
				cb.OnSuccess(ctx, out, in)
			}
		}
	} else {
		for _, cb := range all {
			if cb.OnError != nil {
				cb.OnError(ctx, err, in)
			}
		}
	}
	for _, cb := range all {
		if cb.OnSettled != nil {
			cb.OnSettled(ctx, out, err, in)
		}
	}
	return out, err
}

// IsPending reports whether any call is in flight.
func (m *Mutation[In, Out]) IsPending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Pending > 0
}

// State returns the state of the most recent call.
func (m *Mutation[In, Out]) State() MutationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Reset returns the mutation to idle. In-flight calls are unaffected.
func (m *Mutation[In, Out]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = MutationState{Status: StatusIdle, Pending: m.state.Pending}
}
