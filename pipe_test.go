package gocoro

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeReadReturnsBufferedValueImmediately(t *testing.T) {
	p := NewPipe[int]()
	p.Write(1)
	p.Write(2)
	assert.Equal(t, 2, p.Len())

	task := New(func(c *Ctx) (int, error) { return p.Read(c), nil })
	v, err := SyncWait(task)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, p.Len())
}

func TestPipeReadSuspendsUntilWrite(t *testing.T) {
	p := NewPipe[string]()
	ex := NewThreadedSerialExecutor()
	defer ex.Close()

	result := make(chan string, 1)
	Go(ex, func(c *Ctx) (struct{}, error) {
		result <- p.Read(c)
		return struct{}{}, nil
	})

	select {
	case <-result:
		t.Fatal("read returned before any write occurred")
	case <-time.After(50 * time.Millisecond):
	}

	p.Write("hello")

	select {
	case v := <-result:
		assert.Equal(t, "hello", v)
	case <-timeoutChan(t):
		t.Fatal("reader never woke after write")
	}
}

func TestPipeFIFOOrderingAcrossWrites(t *testing.T) {
	p := NewPipe[int]()
	p.Write(10)
	p.Write(20)
	p.Write(30)

	var got []int
	for i := 0; i < 3; i++ {
		task := New(func(c *Ctx) (int, error) { return p.Read(c), nil })
		v, err := SyncWait(task)
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []int{10, 20, 30}, got)
}

func TestPipeHandsOffToOldestWaiterFirst(t *testing.T) {
	p := NewPipe[int]()
	ex := NewThreadedSerialExecutor()
	defer ex.Close()

	first := make(chan int, 1)
	second := make(chan int, 1)

	Go(ex, func(c *Ctx) (struct{}, error) { first <- p.Read(c); return struct{}{}, nil })
	Go(ex, func(c *Ctx) (struct{}, error) { second <- p.Read(c); return struct{}{}, nil })

	p.Write(1)
	select {
	case v := <-first:
		assert.Equal(t, 1, v)
	case <-timeoutChan(t):
		t.Fatal("first waiter never received a value")
	}

	p.Write(2)
	select {
	case v := <-second:
		assert.Equal(t, 2, v)
	case <-timeoutChan(t):
		t.Fatal("second waiter never received a value")
	}
}
