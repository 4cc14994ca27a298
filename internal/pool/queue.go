package pool

import (
	"context"
	"sync"
)

// job is one unit of work for the Run loop.
type job struct {
	op   string
	fn   func(ctx context.Context) error
	done chan error // buffered, size 1
}

// jobQueue is a thread-safe unbounded FIFO of jobs.
//
// Callers enqueue from any goroutine; only Run dequeues. The signal channel
// lets Run wait for work and for context cancellation in one select.
type jobQueue struct {
	mu     sync.Mutex
	jobs   []job
	closed bool
	signal chan struct{}
}

func newJobQueue() *jobQueue {
	return &jobQueue{
		jobs:   make([]job, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a job. Returns false if the queue is closed.
func (q *jobQueue) Enqueue(j job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.jobs = append(q.jobs, j)

	// Buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front job without blocking.
func (q *jobQueue) TryDequeue() (job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return job{}, false
	}
	j := q.jobs[0]
	q.jobs[0] = job{} // release the closure for GC
	if len(q.jobs) == 1 {
		q.jobs = q.jobs[:0]
	} else {
		q.jobs = q.jobs[1:]
	}
	return j, true
}

// Wait returns a channel that fires when jobs may be available. It is
// closed by Close.
func (q *jobQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued jobs.
func (q *jobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Close stops accepting jobs and wakes the waiter.
func (q *jobQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
