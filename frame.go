// ============================================================================
// gocoro Task Frame - Suspend/Resume Machinery
// ============================================================================
//
// Package: gocoro (root)
// File: frame.go
//
// A frame is the untyped half of a Task[T]: everything an executor needs to
// drive a task without knowing its result type. Go has no stackless
// coroutines, so a frame's body runs on its own goroutine for its whole
// lifetime; "suspend" and "resume" are a baton handed back and forth over a
// pair of rendezvous channels instead of a saved instruction pointer. At
// most one side holds the baton at any moment, which is what gives a frame
// the same "only one resume in flight" guarantee the original coroutine_handle
// model gets for free from the language.
//
// Grounded on original_source/include/coro/core/promise_base.hpp (the
// continuation link, the use-count, the schedule_continuation dance) and on
// the worker goroutine shape of ChuLiYu-raft-recovery's internal/worker:
// Worker.Run loops on a channel exactly the way a frame's body goroutine
// loops on resumeCh, one task at a time, start to finish.
//
// ============================================================================

package gocoro

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

type taskState int32

const (
	stateNormal taskState = iota
	stateCancelling
	stateFinished
)

// cancelledSignal unwinds a parked task's body goroutine when the frame was
// forced to stateFinished out from under it by stopIfNecessary. It is never
// allowed to propagate past runBody.
type cancelledSignal struct{}

var frameSeq uint64

// frame is the non-generic engine behind Task[T]. Its mutex guards every
// field below it; the two channels are the suspend/resume baton and are
// deliberately left unguarded by the mutex (sends and receives on them are
// themselves the synchronization).
type frame struct {
	mu sync.Mutex

	state        taskState
	executor     Executor
	ctxData      Context
	continuation *frame
	externalCB   CallbackRef
	started      bool
	inheritOff   bool

	bodyFn func(*Ctx)
	setErr func(error)

	sink        MetricsSink
	scheduledAt time.Time
	outcome     Outcome

	resumeCh chan struct{} // baton in: executor -> body goroutine
	yieldCh  chan struct{} // baton out: body goroutine -> executor
	doneCh   chan struct{} // closed exactly once, when state becomes Finished

	seq uint64 // tie-breaker for deterministic test ordering only
}

func newFrame() *frame {
	return &frame{
		resumeCh: make(chan struct{}, 1),
		yieldCh:  make(chan struct{}, 1),
		doneCh:   make(chan struct{}),
		seq:      atomic.AddUint64(&frameSeq, 1),
	}
}

// boundExecutor returns the executor this frame was last scheduled on, or
// nil if it has never been scheduled.
func (f *frame) boundExecutor() Executor {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.executor
}

func (f *frame) stopToken() StopToken {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ctxData.StopToken
}

// swapStopToken installs tok as f's current stop token and returns whatever
// token was previously installed. Used by All/AllErr to clear a parent
// frame's own token while it drains its children (so a stop request arriving
// during the drain cannot tear the parent down via stopIfNecessary before
// the children finish) and then restore it afterward.
func (f *frame) swapStopToken(tok StopToken) StopToken {
	f.mu.Lock()
	defer f.mu.Unlock()
	old := f.ctxData.StopToken
	f.ctxData.StopToken = tok
	return old
}

func (f *frame) metricsSink() MetricsSink {
	f.mu.Lock()
	sink := f.sink
	f.mu.Unlock()
	if sink == nil {
		return defaultSink
	}
	return sink
}

// markScheduled records f's sink and, the first time it is called, its
// scheduled-at timestamp -- used to compute scheduled-to-finished latency.
func (f *frame) markScheduled(sink MetricsSink) {
	f.mu.Lock()
	f.sink = sink
	if f.scheduledAt.IsZero() {
		f.scheduledAt = time.Now()
	}
	f.mu.Unlock()
	sink.TaskScheduled()
}

func (f *frame) isFinished() bool {
	select {
	case <-f.doneCh:
		return true
	default:
		return false
	}
}

// inheritFrom copies parent's Context onto f, unless f opted out via
// DisableInheritance. Only meaningful before f has ever been scheduled.
func (f *frame) inheritFrom(parent *frame) {
	f.mu.Lock()
	off := f.inheritOff
	f.mu.Unlock()
	if off {
		return
	}
	parent.mu.Lock()
	ctx := parent.ctxData
	parent.mu.Unlock()
	f.mu.Lock()
	f.ctxData = ctx
	f.mu.Unlock()
}

// setExternalCallback installs cb as f's registered stop callback, releasing
// whatever was registered before it.
func (f *frame) setExternalCallback(cb CallbackRef) {
	f.mu.Lock()
	old := f.externalCB
	f.externalCB = cb
	f.mu.Unlock()
	old.Release()
}

// clearExternalCallback releases f's registered stop callback, if any. Safe
// to call when none is registered.
func (f *frame) clearExternalCallback() {
	f.mu.Lock()
	cb := f.externalCB
	f.externalCB = CallbackRef{}
	f.mu.Unlock()
	cb.Release()
}

// setContinuation links parent as the frame to schedule once f finishes. If
// f has already finished, parent is scheduled immediately instead of being
// recorded -- this is the race spec.md calls out explicitly: a child that
// finishes between the awaiter checking "is it ready" and registering its
// continuation must still see that continuation run.
func (f *frame) setContinuation(parent *frame) {
	f.mu.Lock()
	if f.state == stateFinished {
		f.mu.Unlock()
		f.scheduleContinuation(parent)
		return
	}
	f.continuation = parent
	f.mu.Unlock()
}

// scheduleContinuation places parent back onto its own recorded executor:
// LIFO (Next) if parent shares f's executor (so the awaiter resumes before
// anything f's executor had queued ahead of it), FIFO (Schedule) otherwise.
func (f *frame) scheduleContinuation(parent *frame) {
	parent.mu.Lock()
	parentExec := parent.executor
	parent.mu.Unlock()
	if parentExec == nil {
		return
	}
	f.mu.Lock()
	fExec := f.executor
	f.mu.Unlock()
	h := Handle{fr: parent}
	if parentExec == fExec {
		parentExec.Next(h)
	} else {
		parentExec.Schedule(h)
	}
}

// resume hands the baton to f's body goroutine and blocks until it either
// suspends again or finishes. Called only by an executor's own worker loop,
// never concurrently for the same frame -- that invariant is what lets the
// channel pair stay unbuffered-in-spirit (capacity 1 is just slack so the
// send in resume never has to wait for runBody's first receive).
func (f *frame) resume() {
	f.mu.Lock()
	if f.state == stateFinished {
		f.mu.Unlock()
		return
	}
	firstRun := !f.started
	f.started = true
	f.mu.Unlock()

	if firstRun {
		go f.runBody()
	}

	f.resumeCh <- struct{}{}
	<-f.yieldCh
}

func (f *frame) runBody() {
	<-f.resumeCh
	c := &Ctx{fr: f}

	cancelled := func() (cancelled bool) {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(cancelledSignal); ok {
					cancelled = true
					return
				}
				if f.setErr != nil {
					f.setErr(fmt.Errorf("gocoro: task panicked: %v", r))
				}
			}
		}()
		f.bodyFn(c)
		return false
	}()

	if cancelled {
		// f was already driven to stateFinished by stopIfNecessary, which
		// also scheduled its continuation. This goroutine has nothing left
		// to do but exit.
		return
	}
	f.finish()
}

// finish transitions a frame that ran its body to completion into
// stateFinished, schedules its continuation if one is linked, and hands the
// baton back to whichever resume() call is waiting on it.
func (f *frame) finish() {
	f.mu.Lock()
	f.state = stateFinished
	cont := f.continuation
	f.continuation = nil
	f.mu.Unlock()

	close(f.doneCh)
	if cont != nil {
		f.scheduleContinuation(cont)
	}
	f.reportFinished()
	f.yieldCh <- struct{}{}
}

func (f *frame) reportFinished() {
	f.mu.Lock()
	sink := f.sink
	scheduledAt := f.scheduledAt
	outcome := f.outcome
	f.mu.Unlock()
	if sink == nil {
		sink = defaultSink
	}
	var latency time.Duration
	if !scheduledAt.IsZero() {
		latency = time.Since(scheduledAt)
	}
	sink.TaskFinished(latency, outcome)
}

// stopIfNecessary is the executor-side half of cooperative cancellation. An
// executor calls it on a handle it is about to resume (checking the token
// before spending a resume on it), and a frame's own registered stop
// callback calls it directly while the frame sits parked externally. Either
// way it forces the frame straight to stateFinished with the token's error
// as its own result, without running one more line of the task's body.
// Returns true if it acted.
func (f *frame) stopIfNecessary() bool {
	f.mu.Lock()
	if f.state != stateNormal {
		f.mu.Unlock()
		return false
	}
	tok := f.ctxData.StopToken
	if !tok.StopRequested() {
		f.mu.Unlock()
		return false
	}
	f.state = stateCancelling
	started := f.started
	f.mu.Unlock()

	if f.setErr != nil {
		f.setErr(tok.ThrowIfStopped())
	}

	f.mu.Lock()
	f.state = stateFinished
	f.outcome = OutcomeCancelled
	cont := f.continuation
	f.continuation = nil
	f.mu.Unlock()

	close(f.doneCh)
	if cont != nil {
		f.scheduleContinuation(cont)
	}
	f.reportFinished()

	if started {
		// Wake whatever goroutine is parked at <-resumeCh so it can observe
		// stateFinished and unwind via cancelledSignal instead of leaking.
		select {
		case f.resumeCh <- struct{}{}:
		default:
		}
	}
	return true
}
