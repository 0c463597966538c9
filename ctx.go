package gocoro

// Ctx is the capability a running task body is handed: the only way it can
// reach its own frame, inspect its Context, or suspend itself. It plays the
// role the original design gives a coroutine_handle's promise access plus
// await_transform -- but as a plain value threaded through the body
// function, since Go has no trait-based operator dispatch to hook into.
type Ctx struct {
	fr *frame
}

// Executor returns the executor this task is currently bound to.
func (c *Ctx) Executor() Executor {
	return c.fr.boundExecutor()
}

// StopToken returns the token this task should observe at its own
// suspension points.
func (c *Ctx) StopToken() StopToken {
	return c.fr.stopToken()
}

// ThrowIfStopped is shorthand for c.StopToken().ThrowIfStopped().
func (c *Ctx) ThrowIfStopped() error {
	return c.StopToken().ThrowIfStopped()
}

// UserData returns the ambient value stashed on this task's Context.
func (c *Ctx) UserData() any {
	c.fr.mu.Lock()
	defer c.fr.mu.Unlock()
	return c.fr.ctxData.UserData
}

// Context returns a copy of the task's full ambient Context.
func (c *Ctx) Context() Context {
	c.fr.mu.Lock()
	defer c.fr.mu.Unlock()
	return c.fr.ctxData
}

// Handle returns an opaque, comparable reference to the running task's own
// frame -- useful for registering it with a sync primitive's waiter list.
func (c *Ctx) Handle() Handle {
	return Handle{fr: c.fr}
}

// park hands the baton back to the executor and blocks until the next
// resume. If the frame was forced to completion by cancellation while
// parked, park never returns: it unwinds the body goroutine instead.
func (c *Ctx) park() {
	fr := c.fr
	fr.yieldCh <- struct{}{}
	<-fr.resumeCh
	if fr.isFinished() {
		panic(cancelledSignal{})
	}
}

// parkExternal marks the current task as externally parked on its own
// executor (so the executor's ready-queue drain doesn't wait on it, and so
// cancellation can reach it while it sits outside the queue) and then parks.
// Sync primitives that hand a task back to the executor themselves -- a
// Latch, a Mutex, a Pipe -- call this instead of scheduling through Await.
func (c *Ctx) parkExternal() {
	ex := c.Executor()
	ex.External(c.Handle())
	c.park()
}
