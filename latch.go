package gocoro

import "sync"

// Latch is a single-use countdown gate: any number of tasks can Wait on it,
// and they all resume together the instant the count reaches zero. Modeled
// on the teacher's job-completion fan-in pattern in
// internal/jobmanager.JobManager, generalized from "count of jobs still
// in flight" to "count of arbitrary events still outstanding".
type Latch struct {
	mu      sync.Mutex
	count   int
	waiters []*frame
}

// NewLatch creates a Latch that releases its waiters once CountDown has been
// called n times (or with a cumulative decrement of n).
func NewLatch(n int) *Latch {
	return &Latch{count: n}
}

// CountDown decrements the latch's count by n (default 1 if n is 0) and
// releases every waiter if the count reaches zero. Calling it again after
// the latch has already reached zero is a no-op.
func (l *Latch) CountDown(n int) {
	if n == 0 {
		n = 1
	}
	l.mu.Lock()
	if l.count <= 0 {
		l.mu.Unlock()
		return
	}
	l.count -= n
	var release []*frame
	if l.count <= 0 {
		release = l.waiters
		l.waiters = nil
	}
	l.mu.Unlock()

	for _, fr := range release {
		if ex := fr.boundExecutor(); ex != nil {
			ex.Schedule(Handle{fr: fr})
		}
	}
}

// Count returns the latch's current count.
func (l *Latch) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Wait suspends the calling task until the latch's count reaches zero. It
// returns immediately if the count is already at zero.
func (l *Latch) Wait(c *Ctx) {
	l.mu.Lock()
	if l.count <= 0 {
		l.mu.Unlock()
		return
	}
	l.waiters = append(l.waiters, c.fr)
	l.mu.Unlock()
	c.parkExternal()
}
