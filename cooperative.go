// ============================================================================
// gocoro CooperativeSerialExecutor - host-yielding driver goroutine
// ============================================================================
//
// Package: gocoro (root)
// File: cooperative.go
//
// Grounded on spec.md §4.4.2: construction kicks off a driver goroutine --
// the Go stand-in for "a driver coroutine (not a thread)" -- that loops over
// the ready queue much like ThreadedSerialExecutor's worker, but instead of
// blocking indefinitely when the ready queue empties, and instead of
// blocking the caller at all while draining, it periodically calls an
// injected YieldFunc (the stand-in for a host's sleep(0)) once it has been
// draining longer than MaxBlockingTimeMS. When the ready queue empties, the
// driver waits on an internal one-shot channel that the next Schedule/Next
// call resolves -- "a resolvable latch against the host event loop."
// Destroy sets termination and resolves that channel so the driver can exit.
//
// ============================================================================

package gocoro

import (
	"runtime"
	"sync"
	"time"
)

// CooperativeExecutorOption configures a CooperativeSerialExecutor at
// construction.
type CooperativeExecutorOption func(*CooperativeSerialExecutor)

// WithMaxBlockingTime bounds how long the driver is allowed to drain the
// ready queue before it calls YieldFunc, regardless of how much work
// remains. Default 33ms (two frames at 60Hz).
func WithMaxBlockingTime(d time.Duration) CooperativeExecutorOption {
	return func(e *CooperativeSerialExecutor) { e.maxBlocking = d }
}

// WithCheckEveryN controls how many ready-queue items run between clock
// checks while draining. Checking the clock on every single item is wasted
// work for cheap tasks; checking too rarely makes MaxBlockingTimeMS fuzzy.
// Default 16.
func WithCheckEveryN(n int) CooperativeExecutorOption {
	return func(e *CooperativeSerialExecutor) { e.checkEveryN = n }
}

// WithMetricsSink attaches sink so every task scheduled on this executor
// reports to it.
func WithMetricsSink(sink MetricsSink) CooperativeExecutorOption {
	return func(e *CooperativeSerialExecutor) { e.sink = sink }
}

// WithYieldFunc overrides the callback the driver calls once it has spent
// MaxBlockingTimeMS continuously draining the ready queue -- the injection
// point a host loop uses to reclaim its own turn (an event-loop tick, a
// frame callback) before the driver resumes more work. Defaults to
// runtime.Gosched, the closest Go stand-in for a host's sleep(0).
func WithYieldFunc(fn func()) CooperativeExecutorOption {
	return func(e *CooperativeSerialExecutor) { e.yieldFn = fn }
}

// CooperativeSerialExecutor drives its ready queue on its own background
// goroutine, same as ThreadedSerialExecutor, but yields back to a
// host-injected callback on a time budget instead of blocking the caller
// directly -- the "driven by host event loop" flavour spec.md §4.4.2 asks
// for, adapted to Go's lack of a single-threaded host loop by making the
// yield point an explicit hook rather than an implicit language feature.
type CooperativeSerialExecutor struct {
	mu          sync.Mutex
	ready       []Handle
	external    map[*frame]struct{}
	maxBlocking time.Duration
	checkEveryN int
	sink        MetricsSink
	yieldFn     func()
	wake        chan struct{}
	stopping    bool
	closed      bool
	loopDone    chan struct{}
}

// NewCooperativeSerialExecutor starts a CooperativeSerialExecutor's driver
// goroutine and returns it ready to accept work.
func NewCooperativeSerialExecutor(opts ...CooperativeExecutorOption) *CooperativeSerialExecutor {
	e := &CooperativeSerialExecutor{
		external:    make(map[*frame]struct{}),
		maxBlocking: 33 * time.Millisecond,
		checkEveryN: 16,
		sink:        defaultSink,
		yieldFn:     runtime.Gosched,
		wake:        make(chan struct{}),
		loopDone:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	go e.loop()
	return e
}

func (e *CooperativeSerialExecutor) metricsSink() MetricsSink { return e.sink }

func (e *CooperativeSerialExecutor) reportGauges() {
	e.mu.Lock()
	ready, ext := len(e.ready), len(e.external)
	e.mu.Unlock()
	e.sink.QueueDepth(ready)
	e.sink.ExternalParked(ext)
}

// wakeLocked resolves whoever is parked on the current wake channel and
// arms a fresh one for the next wait. Must be called with e.mu held.
func (e *CooperativeSerialExecutor) wakeLocked() {
	close(e.wake)
	e.wake = make(chan struct{})
}

// Schedule implements Executor: admits handle FIFO.
func (e *CooperativeSerialExecutor) Schedule(handle Handle) {
	handle.fr.clearExternalCallback()
	e.mu.Lock()
	delete(e.external, handle.fr)
	e.ready = append([]Handle{handle}, e.ready...)
	e.wakeLocked()
	e.mu.Unlock()
	e.reportGauges()
}

// Next implements Executor: admits handle LIFO.
func (e *CooperativeSerialExecutor) Next(handle Handle) {
	handle.fr.clearExternalCallback()
	e.mu.Lock()
	delete(e.external, handle.fr)
	e.ready = append(e.ready, handle)
	e.wakeLocked()
	e.mu.Unlock()
	e.reportGauges()
}

// External implements Executor: parks handle outside the ready queue and
// arms its stop callback.
func (e *CooperativeSerialExecutor) External(handle Handle) {
	e.mu.Lock()
	if _, already := e.external[handle.fr]; already {
		e.mu.Unlock()
		return
	}
	e.external[handle.fr] = struct{}{}
	e.mu.Unlock()
	registerStopCallback(handle)
	e.reportGauges()
}

func (e *CooperativeSerialExecutor) popReady() (Handle, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.ready) == 0 {
		return Handle{}, false
	}
	h := e.ready[len(e.ready)-1]
	e.ready = e.ready[:len(e.ready)-1]
	return h, true
}

// loop is the driver goroutine: pop and resume ready handles, yielding to
// yieldFn on a time budget while a burst is draining, and parking on wake
// once the ready queue empties until the next Schedule/Next call (or
// Destroy) resolves it.
func (e *CooperativeSerialExecutor) loop() {
	defer close(e.loopDone)
	burstStart := time.Now()
	n := 0
	for {
		h, ok := e.popReady()
		if !ok {
			e.mu.Lock()
			if e.stopping {
				e.mu.Unlock()
				return
			}
			waitCh := e.wake
			e.mu.Unlock()
			<-waitCh
			burstStart = time.Now()
			n = 0
			continue
		}

		if !h.fr.stopIfNecessary() {
			h.fr.resume()
		}

		n++
		if e.checkEveryN > 0 && n%e.checkEveryN == 0 && time.Since(burstStart) >= e.maxBlocking {
			e.yieldFn()
			burstStart = time.Now()
		}
	}
}

// Destroy sets termination and resolves the driver's wake channel so it can
// exit on its next loop iteration, then blocks until it has. Any task still
// parked externally (on a timer, a sync primitive, another executor) when
// Destroy is called will simply never be resumed -- same caveat as
// ThreadedSerialExecutor.Close().
func (e *CooperativeSerialExecutor) Destroy() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.stopping = true
	e.wakeLocked()
	e.mu.Unlock()
	<-e.loopDone
}

// HostPromise[T] is a task launched onto a CooperativeSerialExecutor's own
// driver goroutine without blocking the launching goroutine at all -- the
// host-native promise-like object spec.md §4.4.2 describes, satisfied once
// the driver has resumed the task to completion on its own.
type HostPromise[T any] struct {
	task Task[T]
}

// Promise launches fn FIFO onto ex, returning a HostPromise the caller can
// poll (or wait on via Done) once the driver has finished it.
func Promise[T any](ex *CooperativeSerialExecutor, fn func(*Ctx) (T, error)) HostPromise[T] {
	t := New(fn).DisableInheritance()
	t = Schedule(ex, t)
	return HostPromise[T]{task: t}
}

// Ready reports whether the task has finished.
func (p HostPromise[T]) Ready() bool { return p.task.Ready() }

// Done returns a channel closed once the task has finished.
func (p HostPromise[T]) Done() <-chan struct{} { return p.task.Done() }

// TryValue returns the task's result and true if it has finished, or the
// zero value and false if it has not.
func (p HostPromise[T]) TryValue() (T, bool) {
	if !p.task.Ready() {
		var zero T
		return zero, false
	}
	v, _ := p.task.Value()
	return v, true
}

// Value returns the task's result once finished; it is only safe to call
// after Ready reports true.
func (p HostPromise[T]) Value() (T, error) { return p.task.Value() }

// Handle returns an opaque reference to the underlying task's frame.
func (p HostPromise[T]) Handle() Handle { return p.task.Handle() }
