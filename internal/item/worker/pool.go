// Package worker runs post-commit side effects (calendar sync, embedding
// upserts) on a fixed set of goroutines fed by a bounded queue.
package worker

import (
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	DefaultWorkers   = 3
	DefaultQueueSize = 500
)

// Pool handles background jobs
type Pool struct {
	jobQueue    chan func()
	workerWg    sync.WaitGroup
	workerCount int

	mu      sync.RWMutex
	started bool
	stopped bool
}

// NewPool creates a pool; call Start before submitting
func NewPool(workerCount, queueSize int) *Pool {
	if workerCount <= 0 {
		workerCount = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Pool{
		jobQueue:    make(chan func(), queueSize),
		workerCount: workerCount,
	}
}

// Start starts the workers
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started || p.stopped {
		return
	}
	for i := 0; i < p.workerCount; i++ {
		p.workerWg.Add(1)
		go p.worker(i)
	}
	p.started = true
	log.Info().Int("workers", p.workerCount).Msg("[Worker] Started")
}

// Stop drains the queue and waits for every worker to finish
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobQueue)
	p.mu.Unlock()

	p.workerWg.Wait()
	log.Info().Msg("[Worker] All workers stopped")
}

func (p *Pool) worker(id int) {
	defer p.workerWg.Done()

	for job := range p.jobQueue {
		p.run(id, job)
	}
}

func (p *Pool) run(id int, job func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Int("worker", id).Interface("panic", r).Msg("[Worker] Job panicked")
		}
	}()
	job()
}

// QueueJob adds a job without blocking. It reports false when the queue is
// full or the pool has stopped.
func (p *Pool) QueueJob(job func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}
	select {
	case p.jobQueue <- job:
		return true
	default:
		return false
	}
}

// Go queues job, running it on its own goroutine when the queue cannot take it
func (p *Pool) Go(job func()) {
	if p.QueueJob(job) {
		return
	}
	log.Warn().Msg("[Worker] Queue unavailable, running job inline")
	go job()
}

// Pending returns the number of queued jobs
func (p *Pool) Pending() int {
	return len(p.jobQueue)
}
