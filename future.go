package gocoro

// Done returns a channel that is closed once t has finished (with a value,
// an error, or a cancellation -- all three close it). Reading the result
// afterwards is safe via Value.
func (t Task[T]) Done() <-chan struct{} { return t.fr.doneCh }

// SyncWait runs task to completion on a private, throwaway
// ThreadedSerialExecutor and blocks the calling goroutine until it finishes,
// returning its result. It is the bridge from ordinary synchronous Go code
// into the coroutine runtime -- the same role original_source's SerialExecutor::run
// plays for a top-level caller that isn't itself a coroutine.
func SyncWait[T any](task Task[T]) (T, error) {
	ex := NewThreadedSerialExecutor()
	defer ex.Close()
	task = task.DisableInheritance()
	task = Schedule(ex, task)
	<-task.Done()
	return task.Value()
}

// Future[T] is a handle to a task already running on some executor,
// obtained without blocking the goroutine that launched it. Wait blocks
// until the task finishes; Ready polls without blocking.
type Future[T any] struct {
	task Task[T]
}

// Launch schedules fn FIFO onto ex and returns a Future for it immediately.
func Launch[T any](ex Executor, fn func(*Ctx) (T, error)) Future[T] {
	t := New(fn).DisableInheritance()
	t = Schedule(ex, t)
	return Future[T]{task: t}
}

// Wait blocks the calling goroutine until the underlying task finishes and
// returns its result.
func (f Future[T]) Wait() (T, error) {
	<-f.task.Done()
	return f.task.Value()
}

// Ready reports whether the underlying task has already finished.
func (f Future[T]) Ready() bool { return f.task.Ready() }

// Handle returns an opaque reference to the underlying task's frame.
func (f Future[T]) Handle() Handle { return f.task.Handle() }
