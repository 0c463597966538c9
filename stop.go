// ============================================================================
// gocoro Stop Token / Stop Source - Cooperative Cancellation
// ============================================================================
//
// Package: gocoro (root)
// File: stop.go
// Function: Monotonic cancellation signal shared between a StopSource (the
// writer) and any number of StopToken copies (the readers).
//
// Ported from original_source/include/coro/core/stop.hpp: a StopState holds
// a mutex-guarded "requested" flag, the error to raise once requested, and an
// ordered list of subscriber callbacks. Requesting stop drains and invokes
// every callback exactly once, in registration order, swallowing whatever
// they panic/return since a misbehaving subscriber must never wedge
// cancellation for the rest of the system.
//
// ============================================================================

package gocoro

import (
	"errors"
	"sync"
)

// ErrStopped is the default error a StopToken raises once its source has
// requested stop. A StopSource may be constructed with a different error.
var ErrStopped = errors.New("gocoro: stop requested")

// ErrUninitialized is raised when a task's result slot is read before the
// task has finished; this is a programming error, not a recoverable one.
var ErrUninitialized = errors.New("gocoro: task result read before completion")

// stopCallback is a registered one-shot closure, shared by pointer between
// the state's callback list and its CallbackRef, so Release can unregister it
// and is harmless even after it has already fired.
type stopCallback struct {
	mu      sync.Mutex
	fn      func()
	invoked bool
}

func (c *stopCallback) invoke() {
	c.mu.Lock()
	if c.invoked || c.fn == nil {
		c.mu.Unlock()
		return
	}
	c.invoked = true
	fn := c.fn
	c.mu.Unlock()

	// Never let a subscriber's panic prevent the rest of the callback list
	// (and request_stop itself) from completing.
	defer func() { _ = recover() }()
	fn()
}

// CallbackRef is a strong reference to a registered stop callback. Dropping
// it via Release unregisters the callback; Release is idempotent and safe
// to call multiple times or never (the callback stays registered until the
// source is requested or the ref is released).
type CallbackRef struct {
	state *stopState
	cb    *stopCallback
}

// Release unregisters the callback if it has not already fired.
func (r CallbackRef) Release() {
	if r.state == nil || r.cb == nil {
		return
	}
	r.state.removeCallback(r.cb)
}

// stopState is the shared state behind a StopSource and all its StopTokens.
type stopState struct {
	mu        sync.Mutex
	requested bool
	err       error
	callbacks []*stopCallback
}

func newStopState(err error) *stopState {
	if err == nil {
		err = ErrStopped
	}
	return &stopState{err: err}
}

func (s *stopState) requestStop() {
	s.mu.Lock()
	if s.requested {
		s.mu.Unlock()
		return
	}
	s.requested = true
	callbacks := s.callbacks
	s.callbacks = nil
	s.mu.Unlock()

	// Callbacks must not re-acquire s.mu (they are logically "invoked under
	// it" per the locking discipline in spec §5) -- we've already copied
	// and cleared the slice above, so invoking outside the lock is safe.
	for _, cb := range callbacks {
		cb.invoke()
	}
}

func (s *stopState) stopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requested
}

func (s *stopState) exception() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *stopState) addCallback(fn func()) CallbackRef {
	cb := &stopCallback{fn: fn}

	s.mu.Lock()
	if s.requested {
		s.mu.Unlock()
		cb.invoke()
		return CallbackRef{state: s, cb: cb}
	}
	s.callbacks = append(s.callbacks, cb)
	s.mu.Unlock()

	return CallbackRef{state: s, cb: cb}
}

func (s *stopState) removeCallback(cb *stopCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.callbacks {
		if c == cb {
			s.callbacks = append(s.callbacks[:i], s.callbacks[i+1:]...)
			return
		}
	}
}

// StopToken is a read-only view of a StopState. The zero value is a valid
// "no state" token: every query returns false/nil and registration is a
// no-op, matching a default-constructed token in the original design.
type StopToken struct {
	state *stopState
}

// StopRequested reports whether the underlying source has requested stop.
// Never blocks.
func (t StopToken) StopRequested() bool {
	return t.state != nil && t.state.stopRequested()
}

// ThrowIfStopped returns the source's stop error if stop was requested, nil
// otherwise.
func (t StopToken) ThrowIfStopped() error {
	if !t.StopRequested() {
		return nil
	}
	return t.state.exception()
}

// AddCallback registers fn to run once stop is requested. If stop has
// already been requested, fn runs synchronously before AddCallback returns.
// Releasing the returned CallbackRef unregisters fn if it has not yet run.
func (t StopToken) AddCallback(fn func()) CallbackRef {
	if t.state == nil {
		return CallbackRef{}
	}
	return t.state.addCallback(fn)
}

// Valid reports whether the token carries a backing state.
func (t StopToken) Valid() bool {
	return t.state != nil
}

// Equal reports whether two tokens share the same underlying state.
func (t StopToken) Equal(o StopToken) bool {
	return t.state == o.state
}

// StopSource is the writer side of a cancellation signal.
type StopSource struct {
	state *stopState
}

// StopSourceOption configures a new StopSource.
type StopSourceOption func(*stopState)

// WithStopError overrides the error a token raises once stop is requested.
func WithStopError(err error) StopSourceOption {
	return func(s *stopState) { s.err = err }
}

// NewStopSource creates a new, independent cancellation source.
func NewStopSource(opts ...StopSourceOption) *StopSource {
	s := newStopState(nil)
	for _, opt := range opts {
		opt(s)
	}
	return &StopSource{state: s}
}

// Token hands out a token sharing this source's state.
func (s *StopSource) Token() StopToken {
	return StopToken{state: s.state}
}

// RequestStop sets the flag (idempotent) and fires every registered
// callback, in registration order, exactly once.
func (s *StopSource) RequestStop() {
	s.state.requestStop()
}

// StopRequested is a non-blocking query, equivalent to s.Token().StopRequested().
func (s *StopSource) StopRequested() bool {
	return s.state.stopRequested()
}
