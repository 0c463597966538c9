// ============================================================================
// gocoro All / AllErr - structured concurrent fan-out
// ============================================================================
//
// Package: gocoro (root)
// File: all.go
//
// Both compositions snapshot the caller's Context, run every child to
// completion on the caller's own executor under a shared Latch, and report
// the first error any child produced -- first-wins, the rest are still
// drained but their own errors are discarded, matching spec.md §4.8. This
// cannot be handed off to golang.org/x/sync/errgroup's real join: everything
// here stays on the caller's single executor, and the caller's own resume()
// call must not block waiting on anything that only the same executor's
// queue could ever satisfy. See SPEC_FULL.md §4.8 for why errgroup is wired
// in elsewhere (the bench CLI command and the cross-executor tests) instead.
//
// Per spec.md §4.5, the parent's own stop token is reset to a no-op while it
// drains: the parent's frame is still parked on the shared Latch during that
// window, and a stop request arriving mid-drain must not tear the parent
// frame down out from under its still-running children. The token is
// restored once every child has counted down, and only then checked, so a
// stop requested during the drain still surfaces to the caller -- just after
// the children finished rather than instead of them finishing.
//
// ============================================================================

package gocoro

import "sync"

// All runs every task in tasks to completion on the calling task's own
// executor and returns their values in input order, or the first error any
// of them produced. The other tasks are still allowed to finish even after
// one has failed; their results are simply not surfaced.
func All[T any](c *Ctx, tasks ...Task[T]) ([]T, error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	a := c.fr
	aExec := a.boundExecutor()
	parentCtx := c.Context()

	latch := NewLatch(len(tasks))
	values := make([]T, len(tasks))

	var errMu sync.Mutex
	var firstErr error
	recordErr := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
	}

	for i, t := range tasks {
		i, t := i, t
		wrapper := New(func(wc *Ctx) (struct{}, error) {
			v, err := Await(wc, t)
			if err != nil {
				recordErr(err)
			} else {
				values[i] = v
			}
			return struct{}{}, nil
		}).SetContext(parentCtx)
		// Count down once the wrapper finishes by any path, including being
		// forced to completion by a stop request before or during its body.
		go func() {
			<-wrapper.Done()
			latch.CountDown(1)
		}()
		bindAndNext(aExec, wrapper.fr)
	}

	origTok := a.swapStopToken(StopToken{})
	latch.Wait(c)
	a.swapStopToken(origTok)

	if stopErr := origTok.ThrowIfStopped(); stopErr != nil {
		return nil, stopErr
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return values, nil
}

// AllErr runs every thunk in thunks as an independent child task on the
// calling task's own executor, waits for all of them, and returns the first
// error any produced (or nil if every one of them succeeded). It is the
// heterogeneous, value-free counterpart to All: useful for fanning out a
// batch of side-effecting operations that don't share a result type.
func AllErr(c *Ctx, thunks ...func(*Ctx) error) error {
	if len(thunks) == 0 {
		return nil
	}

	a := c.fr
	aExec := a.boundExecutor()
	parentCtx := c.Context()

	latch := NewLatch(len(thunks))

	var errMu sync.Mutex
	var firstErr error
	recordErr := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
	}

	for _, thunk := range thunks {
		thunk := thunk
		wrapper := New(func(wc *Ctx) (struct{}, error) {
			if err := thunk(wc); err != nil {
				recordErr(err)
			}
			return struct{}{}, nil
		}).SetContext(parentCtx)
		go func() {
			<-wrapper.Done()
			latch.CountDown(1)
		}()
		bindAndNext(aExec, wrapper.fr)
	}

	origTok := a.swapStopToken(StopToken{})
	latch.Wait(c)
	a.swapStopToken(origTok)

	if stopErr := origTok.ThrowIfStopped(); stopErr != nil {
		return stopErr
	}
	return firstErr
}
