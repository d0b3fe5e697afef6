// Package engine implements the polling state machine that watches an
// installed remote filter and dispatches matching entries to callbacks.
//
// An Engine owns exactly one remote filter handle and at most one background
// polling goroutine. Its lifecycle is Idle -> Running -> Stopped; Stopped is
// terminal. Cancellation is cooperative: the state flag is checked at the
// top of each poll cycle, so the worst-case stop latency is one poll
// interval (or up to one second under the randomized default backoff).
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pharos-watch/pharos/entry"
	"github.com/pharos-watch/pharos/filter"
)

// ErrInvalidState is returned for lifecycle violations: watching or
// restarting a stopped filter, or reading synchronously while watching.
var ErrInvalidState = errors.New("engine: invalid filter state")

// State is the lifecycle state of an Engine.
type State int

// Lifecycle states. Transitions are monotonic: Idle -> Running -> Stopped or
// Idle -> Stopped, with the single exception that a one-shot engine returns
// from Running to Idle when its replay completes.
const (
	Idle State = iota
	Running
	Stopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Source fetches entries for a filter handle from the remote node. The rpc
// package provides the log-stream and message-stream bindings.
type Source interface {
	// FetchChanges returns the entries recorded since the previous fetch.
	FetchChanges(ctx context.Context, h filter.Handle) ([]entry.Entry, error)

	// FetchAll returns every entry matching the filter's criteria.
	FetchAll(ctx context.Context, h filter.Handle) ([]entry.Entry, error)

	// Release uninstalls the filter on the remote node.
	Release(ctx context.Context, h filter.Handle) error
}

// Callback receives a formatted entry. Callbacks run inline on the polling
// goroutine in registration order; a slow callback delays delivery of the
// remaining entries in the batch.
type Callback func(e entry.Entry)

// Formatter rewrites an entry before it reaches callbacks.
type Formatter func(e entry.Entry) entry.Entry

// Engine is the filter polling state machine.
type Engine struct {
	source  Source
	handle  filter.Handle
	oneShot bool

	interval time.Duration
	format   Formatter
	valid    filter.Filter
	log      zerolog.Logger

	mu        sync.Mutex
	state     State
	callbacks []Callback
	done      chan struct{}
	runErr    error
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithPollInterval sets the delay between poll cycles. Without it the
// engine sleeps a uniformly random sub-second duration each cycle, so many
// filters against one node do not poll in lockstep.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.interval = d
	}
}

// WithFormatter sets the entry formatter. The default is identity.
func WithFormatter(f Formatter) Option {
	return func(e *Engine) {
		e.format = f
	}
}

// WithDataFilters compiles the given set into the engine's validity hook.
// An empty set compiles to match-all.
func WithDataFilters(set filter.DataFilterSet) Option {
	return func(e *Engine) {
		e.valid = filter.Compile(set)
	}
}

// WithValidator sets the validity hook directly. The default accepts every
// entry.
func WithValidator(f filter.Filter) Option {
	return func(e *Engine) {
		e.valid = f
	}
}

// WithLogger sets the engine's logger. The default logger is disabled.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// New creates a live polling engine for the given source and handle. The
// engine repeatedly fetches changes and dispatches them until stopped.
func New(source Source, handle filter.Handle, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		handle: handle,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewOneShot creates a historical replay engine: on Watch it performs
// exactly one full fetch, dispatches matching entries, and returns to Idle.
func NewOneShot(source Source, handle filter.Handle, opts ...Option) *Engine {
	e := New(source, handle, opts...)
	e.oneShot = true
	return e
}

// Handle returns the remote filter handle this engine owns.
func (e *Engine) Handle() filter.Handle {
	return e.handle
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Err returns the error that terminated the background poll task, if any.
// A non-nil result means the engine is inert: its task has exited but the
// state flag was not changed, so Watch callers observe no failure signal.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runErr
}

// Watch registers callbacks and, if the engine is idle, starts the
// background poll task. Additional calls while running extend the registry.
// Watching a stopped engine fails with ErrInvalidState.
func (e *Engine) Watch(callbacks ...Callback) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Stopped {
		return fmt.Errorf("%w: cannot watch a stopped filter", ErrInvalidState)
	}

	e.callbacks = append(e.callbacks, callbacks...)

	if e.state == Idle {
		e.state = Running
		e.done = make(chan struct{})
		go e.run(e.done)
	}
	return nil
}

// Stop transitions the engine to Stopped, requests the remote node release
// the handle, and waits up to timeout for the poll task to observe the flag
// and exit. The wait is advisory: it may expire before the task stops, and
// the task is never forcibly cancelled. Stopping an already stopped engine
// is a no-op.
func (e *Engine) Stop(timeout time.Duration) error {
	e.mu.Lock()
	if e.state == Stopped {
		e.mu.Unlock()
		return nil
	}
	e.state = Stopped
	done := e.done
	e.mu.Unlock()

	err := e.source.Release(context.Background(), e.handle)
	if err != nil {
		e.log.Warn().Err(err).Str("handle", string(e.handle)).Msg("release filter failed")
	}

	if done != nil && timeout > 0 {
		select {
		case <-done:
		case <-time.After(timeout):
			e.log.Debug().Str("handle", string(e.handle)).Msg("poll task still draining after stop timeout")
		}
	}
	return err
}

// GetNewEntries performs a one-shot fetch of the entries recorded since the
// previous fetch. It fails with ErrInvalidState while the engine is
// watching: synchronous reads and background polling are mutually exclusive
// uses of the same handle.
func (e *Engine) GetNewEntries(ctx context.Context) ([]entry.Entry, error) {
	if err := e.ensureNotRunning("GetNewEntries"); err != nil {
		return nil, err
	}

	entries, err := e.source.FetchChanges(ctx, e.handle)
	if err != nil {
		return nil, err
	}
	return e.formatValid(entries), nil
}

// GetAllEntries performs a one-shot fetch of every entry matching the
// filter's criteria. Like GetNewEntries it fails with ErrInvalidState while
// the engine is watching.
func (e *Engine) GetAllEntries(ctx context.Context) ([]entry.Entry, error) {
	if err := e.ensureNotRunning("GetAllEntries"); err != nil {
		return nil, err
	}

	entries, err := e.source.FetchAll(ctx, e.handle)
	if err != nil {
		return nil, err
	}
	return e.formatValid(entries), nil
}

func (e *Engine) ensureNotRunning(op string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Running {
		return fmt.Errorf("%w: cannot call %s on a filter that is actively watching", ErrInvalidState, op)
	}
	return nil
}

// run is the background poll task. It exits when the state flag leaves
// Running, or permanently on a fetch error or callback panic; in the error
// cases the state flag is left untouched and the failure is recorded for
// Err. There is no retry.
func (e *Engine) run(done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			e.recordFailure(fmt.Errorf("engine: callback fault: %v", r))
		}
	}()

	ctx := context.Background()

	if e.oneShot {
		entries, err := e.source.FetchAll(ctx, e.handle)
		if err != nil {
			e.recordFailure(fmt.Errorf("engine: fetch all: %w", err))
			return
		}
		e.dispatch(entries)

		e.mu.Lock()
		if e.state == Running {
			e.state = Idle
		}
		e.mu.Unlock()
		return
	}

	for e.State() == Running {
		entries, err := e.source.FetchChanges(ctx, e.handle)
		if err != nil {
			e.recordFailure(fmt.Errorf("engine: fetch changes: %w", err))
			return
		}
		e.dispatch(entries)
		e.sleep()
	}
}

// dispatch delivers each valid entry to every registered callback, entries
// in source order, callbacks in registration order.
func (e *Engine) dispatch(entries []entry.Entry) {
	if len(entries) == 0 {
		return
	}

	// Copy-on-read: Watch may append concurrently.
	e.mu.Lock()
	callbacks := make([]Callback, len(e.callbacks))
	copy(callbacks, e.callbacks)
	e.mu.Unlock()

	for _, ent := range entries {
		if !e.isValid(ent) {
			continue
		}
		formatted := e.formatEntry(ent)
		for _, cb := range callbacks {
			cb(formatted)
		}
	}
}

func (e *Engine) sleep() {
	d := e.interval
	if d <= 0 {
		d = rand.N(time.Second)
	}
	time.Sleep(d)
}

func (e *Engine) isValid(ent entry.Entry) bool {
	return e.valid == nil || e.valid.Match(ent)
}

func (e *Engine) formatEntry(ent entry.Entry) entry.Entry {
	if e.format == nil {
		return ent
	}
	return e.format(ent)
}

func (e *Engine) formatValid(entries []entry.Entry) []entry.Entry {
	out := make([]entry.Entry, 0, len(entries))
	for _, ent := range entries {
		if !e.isValid(ent) {
			continue
		}
		out = append(out, e.formatEntry(ent))
	}
	return out
}

func (e *Engine) recordFailure(err error) {
	e.mu.Lock()
	e.runErr = err
	e.mu.Unlock()
	e.log.Error().Err(err).Str("handle", string(e.handle)).Msg("poll task terminated")
}
