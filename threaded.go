// ============================================================================
// gocoro ThreadedSerialExecutor - one dedicated worker goroutine per executor
// ============================================================================
//
// Package: gocoro (root)
// File: threaded.go
//
// Shaped directly on ChuLiYu-raft-recovery's internal/worker.Worker.Run: a
// single goroutine that loops pulling work off a channel/queue until told to
// stop, executing one item fully before looking at the next. The difference
// from a generic worker pool is that there is exactly one worker here by
// design -- spec.md's single-active-resume invariant requires it -- and the
// "queue" is a deque so admission can be FIFO (Schedule) or LIFO (Next).
//
// ============================================================================

package gocoro

import "sync"

// ThreadedSerialExecutor drives its ready queue on a dedicated background
// goroutine, independent of whatever goroutine submitted work to it. Use it
// when tasks need to run off the caller's own call stack -- the usual case
// for SyncWait, which blocks a real OS thread waiting for a root task to
// finish while the executor's worker goroutine does the actual driving.
type ThreadedSerialExecutor struct {
	mu       sync.Mutex
	cond     *sync.Cond
	ready    []Handle
	external map[*frame]struct{}
	stopping bool
	closed   bool
	loopDone chan struct{}
	sink     MetricsSink
}

// ThreadedExecutorOption configures a ThreadedSerialExecutor at construction.
type ThreadedExecutorOption func(*ThreadedSerialExecutor)

// WithThreadedMetricsSink attaches sink so every task scheduled on this
// executor reports to it.
func WithThreadedMetricsSink(sink MetricsSink) ThreadedExecutorOption {
	return func(e *ThreadedSerialExecutor) { e.sink = sink }
}

// NewThreadedSerialExecutor starts a ThreadedSerialExecutor's worker
// goroutine and returns it ready to accept work.
func NewThreadedSerialExecutor(opts ...ThreadedExecutorOption) *ThreadedSerialExecutor {
	e := &ThreadedSerialExecutor{
		external: make(map[*frame]struct{}),
		loopDone: make(chan struct{}),
		sink:     defaultSink,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cond = sync.NewCond(&e.mu)
	go e.loop()
	return e
}

func (e *ThreadedSerialExecutor) metricsSink() MetricsSink { return e.sink }

func (e *ThreadedSerialExecutor) reportGauges() {
	e.mu.Lock()
	ready, ext := len(e.ready), len(e.external)
	e.mu.Unlock()
	e.sink.QueueDepth(ready)
	e.sink.ExternalParked(ext)
}

func (e *ThreadedSerialExecutor) loop() {
	defer close(e.loopDone)
	for {
		e.mu.Lock()
		for len(e.ready) == 0 && !e.stopping {
			e.cond.Wait()
		}
		if len(e.ready) == 0 && e.stopping {
			e.mu.Unlock()
			return
		}
		h := e.ready[len(e.ready)-1]
		e.ready = e.ready[:len(e.ready)-1]
		e.mu.Unlock()

		if h.fr.stopIfNecessary() {
			continue
		}
		h.fr.resume()
	}
}

// Schedule implements Executor: admits handle FIFO.
func (e *ThreadedSerialExecutor) Schedule(handle Handle) {
	handle.fr.clearExternalCallback()
	e.mu.Lock()
	delete(e.external, handle.fr)
	e.ready = append([]Handle{handle}, e.ready...)
	e.mu.Unlock()
	e.cond.Signal()
	e.reportGauges()
}

// Next implements Executor: admits handle LIFO.
func (e *ThreadedSerialExecutor) Next(handle Handle) {
	handle.fr.clearExternalCallback()
	e.mu.Lock()
	delete(e.external, handle.fr)
	e.ready = append(e.ready, handle)
	e.mu.Unlock()
	e.cond.Signal()
	e.reportGauges()
}

// External implements Executor: parks handle outside the ready queue and
// arms its stop callback so cancellation can still reach it.
func (e *ThreadedSerialExecutor) External(handle Handle) {
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

// Close stops accepting the effects of further scheduling once the ready
// queue drains, and blocks until the worker goroutine has exited. Any task
// still parked externally (on a timer, a sync primitive, another executor)
// when Close is called will simply never be resumed -- callers that need a
// clean shutdown should cancel their own StopSource first and let tasks
// observe it.
func (e *ThreadedSerialExecutor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.stopping = true
	e.mu.Unlock()
	e.cond.Broadcast()
	<-e.loopDone
}
