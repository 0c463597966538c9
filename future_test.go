package gocoro

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLaunchReturnsFutureUsableAcrossGoroutines(t *testing.T) {
	ex := NewThreadedSerialExecutor()
	defer ex.Close()

	f := Launch(ex, func(c *Ctx) (int, error) { return 21, nil })
	v, err := f.Wait()
	require.NoError(t, err)
	assert.Equal(t, 21, v)
}

func TestFutureReadyReflectsCompletion(t *testing.T) {
	ex := NewThreadedSerialExecutor()
	defer ex.Close()

	block := make(chan struct{})
	f := Launch(ex, func(c *Ctx) (int, error) {
		<-block
		return 1, nil
	})
	assert.False(t, f.Ready())
	close(block)
	_, err := f.Wait()
	require.NoError(t, err)
	assert.True(t, f.Ready())
}

func TestFuturePropagatesError(t *testing.T) {
	ex := NewThreadedSerialExecutor()
	defer ex.Close()

	sentinel := errors.New("launch failed")
	f := Launch(ex, func(c *Ctx) (int, error) { return 0, sentinel })
	_, err := f.Wait()
	assert.ErrorIs(t, err, sentinel)
}

func TestTaskDoneClosesExactlyOnceOnCancellation(t *testing.T) {
	src := NewStopSource()
	task := New(func(c *Ctx) (struct{}, error) {
		return Await(c, Sleep(0))
	}).SetStopToken(src.Token())

	src.RequestStop()
	_, err := SyncWait(task)
	assert.ErrorIs(t, err, ErrStopped)

	select {
	case <-task.Done():
	default:
		t.Fatal("Done channel should be closed once the task has finished")
	}
}
