package gocoro

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllReturnsValuesInInputOrder(t *testing.T) {
	parent := New(func(c *Ctx) ([]int, error) {
		return All(c,
			New(func(cc *Ctx) (int, error) { return 1, nil }),
			New(func(cc *Ctx) (int, error) { return 2, nil }),
			New(func(cc *Ctx) (int, error) { return 3, nil }),
		)
	})
	v, err := SyncWait(parent)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, v)
}

func TestAllReturnsEmptyForNoTasks(t *testing.T) {
	parent := New(func(c *Ctx) ([]int, error) {
		return All[int](c)
	})
	v, err := SyncWait(parent)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestAllReturnsFirstErrorButDrainsEveryChild(t *testing.T) {
	sentinel := errors.New("child 2 failed")
	ran := make([]bool, 3)
	var mu sync.Mutex

	parent := New(func(c *Ctx) ([]int, error) {
		return All(c,
			New(func(cc *Ctx) (int, error) {
				mu.Lock()
				ran[0] = true
				mu.Unlock()
				return 1, nil
			}),
			New(func(cc *Ctx) (int, error) {
				mu.Lock()
				ran[1] = true
				mu.Unlock()
				return 0, sentinel
			}),
			New(func(cc *Ctx) (int, error) {
				mu.Lock()
				ran[2] = true
				mu.Unlock()
				return 3, nil
			}),
		)
	})
	_, err := SyncWait(parent)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, []bool{true, true, true}, ran)
}

func TestAllChildrenInheritParentContext(t *testing.T) {
	src := NewStopSource()
	var observed [2]StopToken
	parent := New(func(c *Ctx) ([]struct{}, error) {
		return All(c,
			New(func(cc *Ctx) (struct{}, error) { observed[0] = cc.StopToken(); return struct{}{}, nil }),
			New(func(cc *Ctx) (struct{}, error) { observed[1] = cc.StopToken(); return struct{}{}, nil }),
		)
	}).SetStopToken(src.Token())

	_, err := SyncWait(parent)
	require.NoError(t, err)
	assert.True(t, observed[0].Equal(src.Token()))
	assert.True(t, observed[1].Equal(src.Token()))
}

func TestAllErrAggregatesFirstError(t *testing.T) {
	sentinel := errors.New("thunk failed")
	parent := New(func(c *Ctx) (struct{}, error) {
		err := AllErr(c,
			func(cc *Ctx) error { return nil },
			func(cc *Ctx) error { return sentinel },
			func(cc *Ctx) error { return nil },
		)
		return struct{}{}, err
	})
	_, err := SyncWait(parent)
	assert.ErrorIs(t, err, sentinel)
}

func TestAllErrSucceedsWhenEveryThunkSucceeds(t *testing.T) {
	parent := New(func(c *Ctx) (struct{}, error) {
		err := AllErr(c,
			func(cc *Ctx) error { return nil },
			func(cc *Ctx) error { return nil },
		)
		return struct{}{}, err
	})
	_, err := SyncWait(parent)
	assert.NoError(t, err)
}

func TestAllErrNoThunksIsNoop(t *testing.T) {
	parent := New(func(c *Ctx) (struct{}, error) {
		return struct{}{}, AllErr(c)
	})
	_, err := SyncWait(parent)
	assert.NoError(t, err)
}

func TestAllRespectsCancellationAfterChildrenFinish(t *testing.T) {
	src := NewStopSource()
	var secondChildFinished atomic.Bool
	parent := New(func(c *Ctx) ([]int, error) {
		return All(c,
			New(func(cc *Ctx) (int, error) {
				src.RequestStop()
				return 1, nil
			}),
			New(func(cc *Ctx) (int, error) {
				time.Sleep(20 * time.Millisecond)
				secondChildFinished.Store(true)
				return 2, nil
			}),
		)
	}).SetStopToken(src.Token())

	_, err := SyncWait(parent)
	assert.ErrorIs(t, err, ErrStopped)
	assert.True(t, secondChildFinished.Load(),
		"parent's own stop token must be suppressed while draining so the slow child still runs to completion")
}
