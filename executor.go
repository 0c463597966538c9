package gocoro

// Handle is an opaque, comparable reference to a task's frame. It is the
// currency executors trade in: Schedule/Next/External all take a Handle
// rather than a typed Task[T], since an executor's ready queue is
// necessarily heterogeneous (a queue mixing Task[int] and Task[string]
// continuations).
type Handle struct {
	fr *frame
}

// Equal reports whether two handles name the same underlying frame.
func (h Handle) Equal(o Handle) bool { return h.fr == o.fr }

// Executor is the scheduling contract every task runs under. Exactly one
// resume is ever in flight for a given executor at a time -- that single-
// threaded-progress guarantee is what callers rely on when they reason
// about a task body as if it ran without interleaving.
//
// Grounded on original_source/include/coro/core/executor.hpp's Executor
// abstract class (schedule/timeout) and on the two concrete scheduling
// disciplines spec.md §4.4 draws out of it explicitly: FIFO admission
// (Schedule) versus call-stack-precedence admission (Next).
type Executor interface {
	// Schedule admits handle at the back of the ready queue (FIFO): the
	// normal way a brand-new, unrelated task joins the run queue.
	Schedule(handle Handle)

	// Next admits handle ahead of whatever is already queued (LIFO): used
	// when a task awaits a child on the same executor, so the child runs
	// to its own next suspension point before the queue's older entries.
	Next(handle Handle)

	// External marks handle as parked outside the ready queue entirely --
	// waiting on a timer, another executor's continuation, or a sync
	// primitive's waiter list. An executor that tracks its external set
	// uses it to know whether it is truly idle (nothing queued and nothing
	// outstanding) versus merely between ready-queue bursts.
	External(handle Handle)
}

// metricsProvider is implemented by executors that can supply a
// MetricsSink for the frames bound to them. Kept separate from Executor
// itself so a minimal custom Executor implementation isn't forced to care
// about metrics at all.
type metricsProvider interface {
	metricsSink() MetricsSink
}

func bindSink(ex Executor, f *frame) {
	if mp, ok := ex.(metricsProvider); ok {
		f.markScheduled(mp.metricsSink())
	}
}

// bindAndSchedule binds ex as f's executor and admits it FIFO. Used the
// first time an unbound frame is ever scheduled.
func bindAndSchedule(ex Executor, f *frame) {
	f.mu.Lock()
	f.executor = ex
	f.mu.Unlock()
	bindSink(ex, f)
	ex.Schedule(Handle{fr: f})
}

// bindAndNext binds ex as f's executor and admits it LIFO. Used when an
// unbound child task is first awaited: it should run before whatever its
// new executor already had queued.
func bindAndNext(ex Executor, f *frame) {
	f.mu.Lock()
	f.executor = ex
	f.mu.Unlock()
	bindSink(ex, f)
	ex.Next(Handle{fr: f})
}

// Schedule binds an as-yet-unscheduled task to ex and admits it FIFO,
// returning the same task for chaining. If t was already bound to an
// executor, it is rebound to ex and admitted again.
func Schedule[T any](ex Executor, t Task[T]) Task[T] {
	if t.fr != nil {
		bindAndSchedule(ex, t.fr)
	}
	return t
}

// Next binds an as-yet-unscheduled task to ex and admits it LIFO, returning
// the same task for chaining.
func Next[T any](ex Executor, t Task[T]) Task[T] {
	if t.fr != nil {
		bindAndNext(ex, t.fr)
	}
	return t
}

// registerStopCallback wires handle's frame up so that a stop request on
// tok forces it straight to completion even while it sits parked outside
// the ready queue. Shared by both executor implementations' External.
func registerStopCallback(h Handle) {
	tok := h.fr.stopToken()
	if !tok.Valid() {
		return
	}
	fr := h.fr
	cb := tok.AddCallback(func() {
		fr.stopIfNecessary()
	})
	fr.setExternalCallback(cb)
}
