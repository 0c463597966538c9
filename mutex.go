package gocoro

import "sync"

// Mutex is a cooperative, coroutine-aware mutual exclusion lock: Lock
// suspends the calling task (rather than blocking an OS thread) when the
// lock is already held, and Unlock hands ownership directly to the next
// waiter in FIFO order rather than releasing it back to "unlocked" and
// risking a third task jumping the queue.
type Mutex struct {
	mu      sync.Mutex
	locked  bool
	waiters []*frame
}

// NewMutex creates an unlocked Mutex.
func NewMutex() *Mutex { return &Mutex{} }

// MutexGuard releases the lock it was issued for when Unlock is called.
type MutexGuard struct {
	m *Mutex
}

// Unlock releases the lock, handing it directly to the next waiting task if
// one exists.
func (g MutexGuard) Unlock() {
	g.m.unlock()
}

// Lock suspends the calling task until the mutex is free, then returns a
// guard that must be unlocked exactly once.
func (m *Mutex) Lock(c *Ctx) MutexGuard {
	m.mu.Lock()
	if !m.locked {
		m.locked = true
		m.mu.Unlock()
		return MutexGuard{m: m}
	}
	m.waiters = append(m.waiters, c.fr)
	m.mu.Unlock()
	c.parkExternal()
	return MutexGuard{m: m}
}

// TryLock attempts to acquire the mutex without suspending, returning the
// guard and true on success.
func (m *Mutex) TryLock() (MutexGuard, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked {
		return MutexGuard{}, false
	}
	m.locked = true
	return MutexGuard{m: m}, true
}

func (m *Mutex) unlock() {
	m.mu.Lock()
	if len(m.waiters) > 0 {
		fr := m.waiters[0]
		m.waiters = m.waiters[1:]
		m.mu.Unlock()
		// Ownership transfers directly: m.locked stays true, the next
		// waiter picks up exactly where Lock left it.
		if ex := fr.boundExecutor(); ex != nil {
			ex.Schedule(Handle{fr: fr})
		}
		return
	}
	m.locked = false
	m.mu.Unlock()
}
