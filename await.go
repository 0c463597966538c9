// ============================================================================
// gocoro Await - the five-step suspension protocol
// ============================================================================
//
// Grounded on original_source/include/coro/awaitable.hpp's Awaitable<Task>:
// await_ready (is it already done), await_suspend (bind-if-unbound, link
// continuation, hand off or mark external), await_resume (drop the held
// reference, then surface the result or rethrow). Go has no operator
// dispatch to hang these off of, so they collapse into one free function
// generic over the child's result type -- C++'s await_transform trait
// dispatch becomes an ordinary call site.
//
// ============================================================================

package gocoro

import "fmt"

// Await suspends the calling task until child completes, returning its
// value or propagating whatever error it finished with (including a stop
// error, if child was cancelled). child must have been produced by New or
// Go and not already consumed by another Await.
//
// If child has never been scheduled, it is bound to the calling task's own
// executor and admitted LIFO (Next) -- it runs to its own first suspension
// point before anything already queued on that executor. If child is
// already running on a different executor, the calling task is marked
// External on its own executor so that executor can go do other work while
// it waits. Either way, the calling task is re-admitted once child's
// continuation fires, by the LIFO/FIFO rule frame.scheduleContinuation
// applies: ahead of everything already queued (Next) when child ran on the
// same executor, behind it (Schedule) when child ran on a different one.
func Await[T any](c *Ctx, child Task[T]) (T, error) {
	var zero T
	if child.fr == nil {
		return zero, fmt.Errorf("gocoro: await on zero-value task")
	}

	a := c.fr
	b := child.fr
	aExec := a.boundExecutor()

	b.mu.Lock()
	bExec := b.executor
	b.mu.Unlock()

	switch {
	case bExec == nil:
		b.inheritFrom(a)
		bindAndNext(aExec, b)
	case bExec != aExec:
		aExec.External(Handle{fr: a})
	}

	b.setContinuation(a)
	c.park()

	// Eagerly drop our hold on the child's result slot before doing
	// anything else, so a re-entrant Await on the same spent Task can never
	// observe a stale value.
	val, err := child.result.get()
	child.result.release()

	if stopErr := c.ThrowIfStopped(); stopErr != nil {
		return zero, stopErr
	}
	return val, err
}
