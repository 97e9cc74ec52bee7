package utils

import (
	"context"
	"errors"
	"sync"
)

// ErrPoolStopped is returned when work is submitted to a stopped pool
var ErrPoolStopped = errors.New("worker pool is not running")

// WorkerPool runs submitted functions on a fixed number of goroutines.
// Probing and concurrent conversion batches both fan out through it.
type WorkerPool struct {
	workers   int
	workQueue chan func()
	wg        sync.WaitGroup
	running   bool
	stopped   bool
	mu        sync.RWMutex
}

// NewWorkerPool creates a pool with the given number of workers (at least
// one). The queue is buffered at twice the worker count.
func NewWorkerPool(workers int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		workers:   workers,
		workQueue: make(chan func(), workers*2),
	}
}

// Workers returns the pool size
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Start launches the workers. Calling it on a running pool has no effect;
// a stopped pool cannot be restarted.
func (wp *WorkerPool) Start() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.running || wp.stopped {
		return
	}

	wp.running = true
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// Stop closes the queue, lets the workers finish everything already
// queued and waits for them to exit.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if !wp.running {
		wp.mu.Unlock()
		return
	}
	wp.running = false
	wp.stopped = true
	close(wp.workQueue)
	wp.mu.Unlock()

	wp.wg.Wait()
}

// Submit queues work without blocking. It returns false if the queue is
// full or the pool is not running.
func (wp *WorkerPool) Submit(work func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if !wp.running {
		return false
	}

	select {
	case wp.workQueue <- work:
		return true
	default:
		return false
	}
}

// SubmitWait queues work, blocking until there is room or ctx is done
func (wp *WorkerPool) SubmitWait(ctx context.Context, work func()) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if !wp.running {
		return ErrPoolStopped
	}

	select {
	case wp.workQueue <- work:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for work := range wp.workQueue {
		if work != nil {
			work()
		}
	}
}
