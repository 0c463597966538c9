package gocoro

import "fmt"

type resultState int8

const (
	resultUninitialized resultState = iota
	resultValue
	resultError
)

// typedResult is the tri-state result slot spec.md §3 describes: unread
// until the body either returns a value or an error, written at most once.
type typedResult[T any] struct {
	state resultState
	value T
	err   error
}

func (r *typedResult[T]) setValue(v T) {
	if r.state != resultUninitialized {
		return
	}
	r.value = v
	r.state = resultValue
}

func (r *typedResult[T]) setErr(err error) {
	if r.state != resultUninitialized {
		return
	}
	r.err = err
	r.state = resultError
}

func (r *typedResult[T]) get() (T, error) {
	switch r.state {
	case resultValue:
		return r.value, nil
	case resultError:
		var zero T
		return zero, r.err
	default:
		panic(ErrUninitialized)
	}
}

// release drops this task's reference to its result slot. Go's collector
// makes this symbolic rather than load-bearing, but it is kept as an
// explicit step -- matching Awaitable<Task>'s AtExit-scoped task destruction
// in original_source/include/coro/awaitable.hpp -- so a task's result
// cannot be read twice by accident after it has been awaited once.
func (r *typedResult[T]) release() {
	r.state = resultUninitialized
	var zero T
	r.value = zero
	r.err = nil
}

// Task[T] is a lazily-started, single-owner unit of suspendable work. It is
// move-only in spirit: copying a Task after it has been consumed by Await
// or Schedule produces a second handle to the same frame, which is exactly
// the double-resume hazard the original design's OnlyMovable base prevents
// at compile time and this port prevents by convention (don't do that) plus
// Reset for callers who want to make the "this value is spent" state
// explicit.
type Task[T any] struct {
	fr     *frame
	result *typedResult[T]
}

// New builds a Task[T] whose body is fn. The task does not run until it is
// scheduled onto an Executor (directly via Schedule/Next, or implicitly by
// being Awaited from a running task).
func New[T any](fn func(*Ctx) (T, error)) Task[T] {
	res := &typedResult[T]{}
	fr := newFrame()
	fr.setErr = res.setErr
	fr.bodyFn = func(c *Ctx) {
		v, err := fn(c)
		if err != nil {
			res.setErr(err)
			fr.outcome = OutcomeError
		} else {
			res.setValue(v)
			fr.outcome = OutcomeValue
		}
	}
	return Task[T]{fr: fr, result: res}
}

// Go creates a task from fn and immediately schedules it FIFO onto ex --
// the common "fire and forget" shape: the caller never awaits the returned
// task directly, relying instead on ex to drive it to completion on its
// own.
func Go[T any](ex Executor, fn func(*Ctx) (T, error)) Task[T] {
	return Schedule(ex, New(fn))
}

// Valid reports whether t still refers to a live frame (the zero Task is
// invalid, as is one that has been Reset).
func (t Task[T]) Valid() bool { return t.fr != nil }

// Ready reports whether the task has run to completion (value, error, or
// cancellation all count).
func (t Task[T]) Ready() bool {
	return t.fr != nil && t.fr.isFinished()
}

// Handle returns an opaque reference to this task's frame.
func (t Task[T]) Handle() Handle { return Handle{fr: t.fr} }

// Context returns a copy of the task's ambient Context. A running body reads
// its frame's Context afresh through each Ctx accessor, so a change made
// after the task has started is visible to it from then on.
func (t Task[T]) Context() Context {
	t.fr.mu.Lock()
	defer t.fr.mu.Unlock()
	return t.fr.ctxData
}

// SetContext overrides the task's ambient Context, bypassing whatever it
// would otherwise inherit from an awaiting parent. Typically used to seed a
// root task (one nothing else awaits) with a StopToken before scheduling.
func (t Task[T]) SetContext(ctx Context) Task[T] {
	t.fr.mu.Lock()
	t.fr.ctxData = ctx
	t.fr.mu.Unlock()
	return t
}

// SetStopToken overrides just the StopToken half of the task's Context.
func (t Task[T]) SetStopToken(tok StopToken) Task[T] {
	t.fr.mu.Lock()
	t.fr.ctxData.StopToken = tok
	t.fr.mu.Unlock()
	return t
}

// DisableInheritance opts this task out of inheriting a Context from
// whatever task ends up awaiting it -- for root tasks like the ones backing
// Future/SyncWait or a HostPromise, which should keep the Context supplied
// at construction rather than picking one up from an incidental awaiter.
func (t Task[T]) DisableInheritance() Task[T] {
	t.fr.mu.Lock()
	t.fr.inheritOff = true
	t.fr.mu.Unlock()
	return t
}

// Reset clears this Task value, marking it explicitly spent. It does not
// affect the underlying frame if another Task value still refers to it.
func (t *Task[T]) Reset() {
	t.fr = nil
	t.result = nil
}

// Value returns the task's result. It panics with ErrUninitialized if
// called before the task has finished -- callers that haven't already
// confirmed Ready() should go through Await instead.
func (t Task[T]) Value() (T, error) {
	if t.fr == nil {
		var zero T
		return zero, fmt.Errorf("gocoro: Value called on zero-value task")
	}
	return t.result.get()
}
