package gocoro

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// Property 1: a chain of tasks awaiting each other returns the innermost
// value, on both executor flavours.
func TestPropertyLinearChainThreaded(t *testing.T) {
	inner := New(func(c *Ctx) (int, error) { return 7, nil })
	mid := New(func(c *Ctx) (int, error) { return Await(c, inner) })
	outer := New(func(c *Ctx) (int, error) { return Await(c, mid) })

	v, err := SyncWait(outer)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestPropertyLinearChainCooperative(t *testing.T) {
	ex := NewCooperativeSerialExecutor()
	inner := New(func(c *Ctx) (int, error) { return 7, nil })
	mid := New(func(c *Ctx) (int, error) { return Await(c, inner) })
	outer := New(func(c *Ctx) (int, error) { return Await(c, mid) })
	outer = Schedule(ex, outer)
	defer ex.Destroy()

	<-outer.Done()
	v, err := outer.Value()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

// Property 2: cancellation during a sleep resumes promptly with the stop
// error rather than waiting out the deadline.
func TestPropertyCancellationDuringSleepResumesPromptly(t *testing.T) {
	src := NewStopSource()
	task := New(func(c *Ctx) (struct{}, error) {
		return Await(c, Sleep(time.Hour))
	}).SetStopToken(src.Token())

	go func() {
		time.Sleep(20 * time.Millisecond)
		src.RequestStop()
	}()

	start := time.Now()
	_, err := SyncWait(task)
	elapsed := time.Since(start)
	assert.ErrorIs(t, err, ErrStopped)
	assert.Less(t, elapsed, time.Second)
}

// Property 3: scheduling a task and dropping the caller's handle still
// drives it to completion.
func TestPropertyScheduledButNotAwaitedTaskStillCompletes(t *testing.T) {
	ex := NewThreadedSerialExecutor()
	defer ex.Close()

	ran := make(chan struct{})
	func() {
		Go(ex, func(c *Ctx) (struct{}, error) {
			close(ran)
			return struct{}{}, nil
		})
	}()

	select {
	case <-ran:
	case <-timeoutChan(t):
		t.Fatal("fire-and-forget task never completed")
	}
}

// Property 4: an All fan-out of N sleeping tasks completes in roughly one
// sleep duration, not N of them; the next test covers the first-error case.
func TestPropertyAllFanOutRunsConcurrently(t *testing.T) {
	const n = 10
	parent := New(func(c *Ctx) ([]int, error) {
		tasks := make([]Task[int], n)
		for i := 0; i < n; i++ {
			i := i
			tasks[i] = New(func(cc *Ctx) (int, error) {
				_, err := Await(cc, Sleep(40*time.Millisecond))
				return i, err
			})
		}
		return All(c, tasks...)
	})

	start := time.Now()
	v, err := SyncWait(parent)
	elapsed := time.Since(start)
	require.NoError(t, err)
	assert.Less(t, elapsed, 200*time.Millisecond)
	expected := make([]int, n)
	for i := range expected {
		expected[i] = i
	}
	assert.Equal(t, expected, v)
}

func TestPropertyAllFanOutSurfacesFirstError(t *testing.T) {
	sentinel := errors.New("fourth child failed")
	ranToCompletion := make([]bool, 5)
	parent := New(func(c *Ctx) ([]int, error) {
		tasks := make([]Task[int], 5)
		for i := 0; i < 5; i++ {
			i := i
			tasks[i] = New(func(cc *Ctx) (int, error) {
				if i == 3 {
					ranToCompletion[i] = true
					return 0, sentinel
				}
				_, _ = Await(cc, Sleep(5*time.Millisecond))
				ranToCompletion[i] = true
				return i, nil
			})
		}
		return All(c, tasks...)
	})
	_, err := SyncWait(parent)
	assert.ErrorIs(t, err, sentinel)
	for i, ran := range ranToCompletion {
		assert.Truef(t, ran, "child %d should still have run to completion", i)
	}
}

// Property 5: a task on executor A awaits a task submitted on executor B;
// both executors make progress concurrently and every awaiter sees its
// child's result; each executor is shut down by its deferred Close.
// errgroup.Wait is what is allowed to block here -- it
// runs on the plain goroutine driving this test, never inside a frame's
// own resume() call.
func TestPropertyCrossExecutorAwaitBothExecutorsProgress(t *testing.T) {
	exA := NewThreadedSerialExecutor()
	defer exA.Close()
	exB := NewThreadedSerialExecutor()
	defer exB.Close()

	var g errgroup.Group
	results := make([]int, 3)

	for i := 0; i < 3; i++ {
		i := i
		g.Go(func() error {
			childB := Go(exB, func(c *Ctx) (int, error) {
				_, _ = Await(c, Sleep(5*time.Millisecond))
				return i * 10, nil
			})
			parentA := New(func(c *Ctx) (int, error) {
				return Await(c, childB)
			}).DisableInheritance()
			parentA = Schedule(exA, parentA)
			<-parentA.Done()
			v, err := parentA.Value()
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}

	require.NoError(t, g.Wait())
	assert.Equal(t, []int{0, 10, 20}, results)
}

// Property 6: ten tasks incrementing a shared counter 1000 times each under
// a Mutex produce exactly 10,000 with no lost updates.
func TestPropertyMutexFairnessNoLostUpdates(t *testing.T) {
	m := NewMutex()
	counter := 0

	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			task := New(func(c *Ctx) (struct{}, error) {
				for j := 0; j < 1000; j++ {
					guard := m.Lock(c)
					counter++
					guard.Unlock()
				}
				return struct{}{}, nil
			})
			_, err := SyncWait(task)
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 10000, counter)
}
