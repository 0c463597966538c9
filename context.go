package gocoro

// Context is the small bundle of ambient state a task frame carries: the
// StopToken it should observe at its own suspension points, plus an
// arbitrary UserData slot a host application can stash request-scoped data
// in (a correlation ID, a logger, whatever). A child task that is scheduled
// for the first time by an Await call inherits its parent's Context verbatim
// unless inheritance has been disabled on it (see Task.DisableInheritance).
type Context struct {
	StopToken StopToken
	UserData  any
}
