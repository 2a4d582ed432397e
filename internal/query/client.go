// Package query caches read operations by key and runs write operations
// that invalidate those keys on success.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Status is the lifecycle state of a query or mutation.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Defaults mirror the dashboard's query client.
const (
	DefaultStaleTime = 5 * time.Minute
	DefaultGCTime    = 10 * time.Minute
	DefaultRetry     = 1

	DefaultFetchTimeout = time.Minute
)

// DefaultRetryDelay doubles from one second, capped at 30 seconds.
func DefaultRetryDelay(attempt int) time.Duration {
	d := time.Second << attempt
	if d <= 0 || d > 30*time.Second {
		return 30 * time.Second
	}
	return d
}

// Options configures a Client.
type Options struct {
	StaleTime  time.Duration
	GCTime     time.Duration
	Retry      int
	RetryDelay func(attempt int) time.Duration
	// FetchTimeout bounds a shared fetch, retries included. Callers that
	// stop waiting do not cancel it.
	FetchTimeout time.Duration
	Now          func() time.Time
	Logger       *slog.Logger
}

// DefaultOptions returns the standard cache configuration.
func DefaultOptions() Options {
	return Options{
		StaleTime:  DefaultStaleTime,
		GCTime:     DefaultGCTime,
		Retry:      DefaultRetry,
		RetryDelay:   DefaultRetryDelay,
		FetchTimeout: DefaultFetchTimeout,
		Now:          time.Now,
	}
}

// State describes a cached query.
type State struct {
	Status Status
	// Error is the last fetch error. It stays until the next attempt.
	Error          error
	DataUpdatedAt  time.Time
	ErrorUpdatedAt time.Time
	IsStale        bool
	IsFetching     bool
	FetchCount     int
}

type entry struct {
	data    any
	hasData bool
	err     error
	status  Status

	dataUpdatedAt  time.Time
	errorUpdatedAt time.Time
	lastAccess     time.Time

	invalidated bool
	fetching    int
	generation  uint64
	fetchCount  int
}

// Client is the key-indexed cache shared by every query and mutation.
type Client struct {
	opts Options

	mu      sync.Mutex
	entries map[Key]*entry
	// gen numbers generations across entries so a flight key is never
	// reused by an entry created after Clear or Remove.
	gen   uint64
	group singleflight.Group
}

func (c *Client) bumpLocked(e *entry) {
	c.gen++
	e.generation = c.gen
}

// NewClient creates a cache. Zero fields of opts take their defaults; a
// negative Retry disables retries.
func NewClient(opts Options) *Client {
	def := DefaultOptions()
	if opts.StaleTime <= 0 {
		opts.StaleTime = def.StaleTime
	}
	if opts.GCTime <= 0 {
		opts.GCTime = def.GCTime
	}
	if opts.Retry == 0 {
		opts.Retry = def.Retry
	}
	if opts.Retry < 0 {
		opts.Retry = 0
	}
	if opts.RetryDelay == nil {
		opts.RetryDelay = def.RetryDelay
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = def.FetchTimeout
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{opts: opts, entries: make(map[Key]*entry)}
}

// QueryOption adjusts a single Fetch.
type QueryOption func(*queryConfig)

type queryConfig struct {
	enabled   bool
	staleTime time.Duration
	retry     int
}

// Enabled gates the fetch. A disabled query never calls its fetch function.
func Enabled(enabled bool) QueryOption {
	return func(c *queryConfig) { c.enabled = enabled }
}

// StaleTime overrides the freshness window for this query.
func StaleTime(d time.Duration) QueryOption {
	return func(c *queryConfig) { c.staleTime = d }
}

// Retry overrides the retry count for this query.
func Retry(n int) QueryOption {
	return func(c *queryConfig) { c.retry = n }
}

// Fetch returns the data cached under key while it is fresh, otherwise it
// calls fn, retrying per the client's policy, and stores the outcome.
// Concurrent fetches of one key share a single call, which runs detached
// from any one caller's context; a caller whose ctx ends gets ctx.Err()
// while the others still receive the result. On failure the last good
// data, if any, is returned alongside the error.
func Fetch[T any](ctx context.Context, c *Client, key Key, fn func(ctx context.Context) (T, error), opts ...QueryOption) (T, State, error) {
	cfg := queryConfig{enabled: true, staleTime: c.opts.StaleTime, retry: c.opts.Retry}
	for _, o := range opts {
		o(&cfg)
	}

	var zero T
	now := c.opts.Now()

	c.mu.Lock()
	c.gcLocked(now)
	e, ok := c.entries[key]
	if !cfg.enabled {
		if !ok {
			c.mu.Unlock()
			return zero, State{Status: StatusIdle}, nil
		}
		e.lastAccess = now
		data, st := typed[T](e), c.stateLocked(e, now, cfg.staleTime)
		c.mu.Unlock()
		return data, st, nil
	}
	if !ok {
		e = &entry{status: StatusIdle}
		c.bumpLocked(e)
		c.entries[key] = e
	}
	e.lastAccess = now

	if c.freshLocked(e, now, cfg.staleTime) {
		data, st := typed[T](e), c.stateLocked(e, now, cfg.staleTime)
		c.mu.Unlock()
		cacheHits.WithLabelValues(key.Resource()).Inc()
		return data, st, nil
	}

	gen := e.generation
	if !e.hasData {
		e.status = StatusPending
	}
	e.fetching++
	c.mu.Unlock()

	cacheMisses.WithLabelValues(key.Resource()).Inc()

	flightKey := key.path + "#" + strconv.FormatUint(gen, 10)
	ch := c.group.DoChan(flightKey, func() (any, error) {
		return c.flight(ctx, key, e, gen, cfg.retry, func(ctx context.Context) (any, error) {
			return fn(ctx)
		})
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		res.Err = ctx.Err()
	case res = <-ch:
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	e.fetching--

	if res.Err != nil {
		return typed[T](e), c.stateLocked(e, c.opts.Now(), cfg.staleTime), res.Err
	}
	data, _ := res.Val.(T)
	return data, c.stateLocked(e, c.opts.Now(), cfg.staleTime), nil
}

// flight runs one shared fetch of e and stores its outcome if e still holds
// generation gen.
func (c *Client) flight(ctx context.Context, key Key, e *entry, gen uint64, retry int, fn func(context.Context) (any, error)) (any, error) {
	c.mu.Lock()
	e.fetching++
	c.mu.Unlock()

	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.FetchTimeout)
	defer cancel()
	v, err := c.runWithRetry(fctx, key, retry, fn)

	c.mu.Lock()
	defer c.mu.Unlock()
	e.fetching--
	if err != nil {
		fetchErrors.WithLabelValues(key.Resource()).Inc()
	}
	if c.entries[key] == e && e.generation == gen {
		c.storeLocked(e, v, err)
	} else {
		c.opts.Logger.DebugContext(ctx, "discarded outdated query result", slog.String("key", key.String()))
	}
	return v, err
}

func (c *Client) runWithRetry(ctx context.Context, key Key, retry int, fn func(context.Context) (any, error)) (any, error) {
	var lastErr error
	for attempt := 0; attempt <= retry; attempt++ {
		if attempt > 0 {
			delay := c.opts.RetryDelay(attempt - 1)
			c.opts.Logger.DebugContext(ctx, "retrying query",
				slog.String("key", key.String()),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
			)
			if delay > 0 {
				t := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					t.Stop()
					return nil, errors.Join(lastErr, ctx.Err())
				case <-t.C:
				}
			}
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("fetch %s: %w", key, lastErr)
}

func (c *Client) storeLocked(e *entry, v any, err error) {
	now := c.opts.Now()
	e.fetchCount++
	if err != nil {
		e.err = err
		e.errorUpdatedAt = now
		e.status = StatusError
		return
	}
	e.data = v
	e.hasData = true
	e.err = nil
	e.dataUpdatedAt = now
	e.invalidated = false
	e.status = StatusSuccess
}

func (c *Client) freshLocked(e *entry, now time.Time, staleTime time.Duration) bool {
	return e.hasData && e.err == nil && !e.invalidated && now.Sub(e.dataUpdatedAt) < staleTime
}

func (c *Client) stateLocked(e *entry, now time.Time, staleTime time.Duration) State {
	return State{
		Status:         e.status,
		Error:          e.err,
		DataUpdatedAt:  e.dataUpdatedAt,
		ErrorUpdatedAt: e.errorUpdatedAt,
		IsStale:        !e.hasData || e.invalidated || now.Sub(e.dataUpdatedAt) >= staleTime,
		IsFetching:     e.fetching > 0,
		FetchCount:     e.fetchCount,
	}
}

func typed[T any](e *entry) T {
	var zero T
	if e == nil || !e.hasData {
		return zero
	}
	v, ok := e.data.(T)
	if !ok {
		return zero
	}
	return v
}

// Peek returns the cached data and state of key without fetching.
func Peek[T any](c *Client, key Key) (T, State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		var zero T
		return zero, State{Status: StatusIdle}, false
	}
	return typed[T](e), c.stateLocked(e, c.opts.Now(), c.opts.StaleTime), true
}

// SetData stores v under key as freshly fetched data.
func SetData[T any](c *Client, key Key, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	c.bumpLocked(e)
	e.lastAccess = c.opts.Now()
	c.storeLocked(e, v, nil)
}

// Invalidate marks every entry under any of prefixes stale so its next read
// refetches, and drops in-flight results for them. It returns the number of
// entries touched.
func (c *Client) Invalidate(prefixes ...Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, e := range c.entries {
		if matchesAny(k, prefixes) {
			e.invalidated = true
			c.bumpLocked(e)
			n++
		}
	}
	return n
}

// Remove deletes every entry under any of prefixes.
func (c *Client) Remove(prefixes ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if matchesAny(k, prefixes) {
			delete(c.entries, k)
		}
	}
}

// Clear drops the whole cache.
func (c *Client) Clear() {
	c.mu.Lock()
	c.entries = make(map[Key]*entry)
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// GC evicts entries that have not been read for GCTime and are not being
// fetched. It returns the number evicted.
func (c *Client) GC() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gcLocked(c.opts.Now())
}

func (c *Client) gcLocked(now time.Time) int {
	n := 0
	for k, e := range c.entries {
		if e.fetching == 0 && now.Sub(e.lastAccess) >= c.opts.GCTime {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func matchesAny(k Key, prefixes []Key) bool {
	for _, p := range prefixes {
		if k.HasPrefix(p) {
			return true
		}
	}
	return false
}
