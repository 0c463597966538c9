// ============================================================================
// gocoro Sleep - deadline-ordered timer scheduling
// ============================================================================
//
// Package: gocoro (root)
// File: timer.go
//
// A single process-wide timedScheduler backs every Sleep call, keyed by a
// container/heap min-heap of deadlines -- the Go-idiomatic substitute for
// the original design's own timer wheel, and the natural fit here since
// Go's standard library has no built-in ordered-timer-set primitive. The
// scheduler's goroutine keeps a single time.Timer reset to the earliest
// deadline in the heap instead of one timer per deadline.
//
// ============================================================================

package gocoro

import (
	"container/heap"
	"sync"
	"sync/atomic"
	"time"
)

type timerEntry struct {
	deadline time.Time
	fn       func()
	index    int
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *timerHeap) Push(x any) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// timedScheduler runs every registered callback, once, no earlier than its
// deadline, on its own background goroutine.
type timedScheduler struct {
	mu   sync.Mutex
	h    timerHeap
	wake chan struct{}
}

func newTimedScheduler() *timedScheduler {
	s := &timedScheduler{wake: make(chan struct{}, 1)}
	go s.loop()
	return s
}

func (s *timedScheduler) schedule(d time.Duration, fn func()) {
	s.mu.Lock()
	heap.Push(&s.h, &timerEntry{deadline: time.Now().Add(d), fn: fn})
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *timedScheduler) loop() {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()
	for {
		s.mu.Lock()
		wait := time.Hour
		if len(s.h) > 0 {
			wait = time.Until(s.h[0].deadline)
			if wait < 0 {
				wait = 0
			}
		}
		s.mu.Unlock()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-timer.C:
			s.fireDue()
		case <-s.wake:
		}
	}
}

func (s *timedScheduler) fireDue() {
	now := time.Now()
	var due []func()
	s.mu.Lock()
	for len(s.h) > 0 && !s.h[0].deadline.After(now) {
		e := heap.Pop(&s.h).(*timerEntry)
		due = append(due, e.fn)
	}
	s.mu.Unlock()
	for _, fn := range due {
		fn()
	}
}

var globalTimer = newTimedScheduler()

// Sleep returns a task that suspends the calling task for at least d before
// resuming. The wait is cooperative: the calling task's executor is freed
// up via External to run other work while the clock ticks. Cancellation
// during the wait resolves immediately rather than waiting out the
// deadline, since the task's stop callback forces it to completion directly
// -- the timer firing afterwards is then a harmless no-op.
func Sleep(d time.Duration) Task[struct{}] {
	return New(func(c *Ctx) (struct{}, error) {
		if d <= 0 {
			return struct{}{}, nil
		}
		ex := c.Executor()
		handle := c.Handle()

		var fired int32
		globalTimer.schedule(d, func() {
			if atomic.CompareAndSwapInt32(&fired, 0, 1) {
				ex.Schedule(handle)
			}
		})

		c.parkExternal()
		return struct{}{}, nil
	})
}
