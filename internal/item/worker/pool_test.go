package worker

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPool_RunsQueuedJobs(t *testing.T) {
	p := NewPool(2, 10)
	p.Start()

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		assert.True(t, p.QueueJob(func() { ran.Add(1) }))
	}
	p.Stop()
	assert.Equal(t, int32(5), ran.Load(), "Stop drains the queue")

	assert.False(t, p.QueueJob(func() {}))
	p.Stop()
}

func TestPool_GoFallsBackWhenFull(t *testing.T) {
	p := NewPool(1, 1)
	// Not started: the single slot fills and stays full
	assert.True(t, p.QueueJob(func() {}))
	assert.Equal(t, 1, p.Pending())

	var wg sync.WaitGroup
	wg.Add(1)
	p.Go(func() { wg.Done() })

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("overflow job never ran")
	}
}

func TestPool_SurvivesPanics(t *testing.T) {
	p := NewPool(1, 4)
	p.Start()

	var ran atomic.Bool
	p.Go(func() { panic("boom") })
	p.Go(func() { ran.Store(true) })
	p.Stop()
	assert.True(t, ran.Load())
}
