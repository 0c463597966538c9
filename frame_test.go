package gocoro

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingExecutor is a minimal Executor used only to observe which
// handles get admitted and how (Schedule vs Next vs External), without
// actually running anything.
type recordingExecutor struct {
	mu        sync.Mutex
	scheduled []Handle
	nexted    []Handle
	external  []Handle
}

func (e *recordingExecutor) Schedule(h Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scheduled = append(e.scheduled, h)
}
func (e *recordingExecutor) Next(h Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nexted = append(e.nexted, h)
}
func (e *recordingExecutor) External(h Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.external = append(e.external, h)
}

func newBoundFrame(ex Executor) *frame {
	fr := newFrame()
	fr.executor = ex
	fr.bodyFn = func(c *Ctx) {}
	return fr
}

func TestFrameResumeRunsBodyToCompletion(t *testing.T) {
	var ran int32
	fr := newFrame()
	fr.bodyFn = func(c *Ctx) { atomic.AddInt32(&ran, 1) }

	fr.resume()

	assert.Equal(t, int32(1), ran)
	assert.True(t, fr.isFinished())
}

func TestFrameResumeAfterFinishIsNoop(t *testing.T) {
	fr := newFrame()
	fr.bodyFn = func(c *Ctx) {}
	fr.resume()
	assert.NotPanics(t, fr.resume)
}

func TestFrameSuspendThenResumeContinuesBody(t *testing.T) {
	var steps []string
	fr := newFrame()
	fr.bodyFn = func(c *Ctx) {
		steps = append(steps, "before")
		c.park()
		steps = append(steps, "after")
	}

	fr.resume()
	assert.Equal(t, []string{"before"}, steps)
	assert.False(t, fr.isFinished())

	fr.resume()
	assert.Equal(t, []string{"before", "after"}, steps)
	assert.True(t, fr.isFinished())
}

// TestSetContinuationRaceAgainstFinish exercises the exact race spec.md
// calls out: a continuation must be scheduled exactly once whether
// setContinuation wins the race against finish (the ordinary case) or loses
// it (finish already ran, so setContinuation must schedule immediately
// instead of recording a continuation nobody will ever look at again).
func TestSetContinuationRaceAgainstFinish(t *testing.T) {
	for i := 0; i < 200; i++ {
		parentEx := &recordingExecutor{}
		childEx := &recordingExecutor{}

		parent := newBoundFrame(parentEx)
		child := newBoundFrame(childEx)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			child.bodyFn = func(c *Ctx) {}
			child.resume()
		}()
		go func() {
			defer wg.Done()
			child.setContinuation(parent)
		}()
		wg.Wait()

		parentEx.mu.Lock()
		total := len(parentEx.scheduled) + len(parentEx.nexted)
		parentEx.mu.Unlock()
		require.Equal(t, 1, total, "continuation must be scheduled exactly once")
	}
}

func TestStopIfNecessaryForcesCompletionWithoutRunningBody(t *testing.T) {
	src := NewStopSource()
	fr := newFrame()
	fr.ctxData.StopToken = src.Token()
	ran := false
	fr.bodyFn = func(c *Ctx) { ran = true }

	res := &typedResult[int]{}
	fr.setErr = res.setErr

	src.RequestStop()
	acted := fr.stopIfNecessary()

	assert.True(t, acted)
	assert.False(t, ran)
	assert.True(t, fr.isFinished())
	_, err := res.get()
	assert.ErrorIs(t, err, ErrStopped)
}

func TestStopIfNecessaryWakesParkedGoroutineWithoutLeaking(t *testing.T) {
	src := NewStopSource()
	ex := &recordingExecutor{}
	fr := newBoundFrame(ex)
	fr.ctxData.StopToken = src.Token()

	res := &typedResult[int]{}
	fr.setErr = res.setErr

	entered := make(chan struct{})
	fr.bodyFn = func(c *Ctx) {
		close(entered)
		c.park()
		t.Error("body must not resume past a cancellation-forced park")
	}

	go fr.resume()
	<-entered
	// Give resume's body goroutine a moment to reach c.park() and block.
	time.Sleep(10 * time.Millisecond)

	src.RequestStop()
	fr.stopIfNecessary()

	select {
	case <-fr.doneCh:
	case <-time.After(time.Second):
		t.Fatal("frame never reached done after cancellation")
	}
}
