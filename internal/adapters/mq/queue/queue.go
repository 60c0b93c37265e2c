// Package queue defines the contract for enqueuing and consuming batch
// CV submissions.
//
// Implementations may use channels or more advanced structures; the
// in-memory bounded queue below backs the batch job pipeline.
package queue

import (
	"context"
	"sync"

	"github.com/okian/vitae/pkg/metrics"
)

// Default queue configuration constants.
const defaultCapacity = 256

// Submission is the payload flowing through the queue: one CV awaiting
// analysis, tied to its tracking job.
type Submission struct {
	JobID    string
	Filename string
	CVText   string
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a submission to the queue.
	// Returns false if the queue is full and the submission was dropped.
	Enqueue(ctx context.Context, s Submission) bool

	// Dequeue returns a channel that receives submissions as they
	// become available. The channel closes when the queue is closed.
	Dequeue(ctx context.Context) <-chan Submission

	// Len returns the current number of queued submissions.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue. After closing, no new
	// submissions can be enqueued and the dequeue channel closes once
	// drained.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	submissions chan Submission
	capacity    int

	mu     sync.RWMutex
	closed bool
}

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity sets the maximum number of buffered submissions.
func WithCapacity(n int) Option {
	return func(q *InMemoryQueue) {
		if n > 0 {
			q.capacity = n
		}
	}
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.submissions = make(chan Submission, q.capacity)

	metrics.UpdateJobQueueCapacity(q.capacity)
	metrics.UpdateJobQueueSize(0)
	return q
}

// Enqueue adds a submission without blocking. A full or closed queue
// reports backpressure by returning false.
func (q *InMemoryQueue) Enqueue(_ context.Context, s Submission) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}

	select {
	case q.submissions <- s:
		metrics.UpdateJobQueueSize(len(q.submissions))
		return true
	default:
		return false
	}
}

// Dequeue exposes the underlying channel for workers.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Submission {
	return q.submissions
}

// Len returns the current number of queued submissions.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.submissions)
}

// Close shuts the queue down. Workers drain whatever is buffered and
// then observe the closed channel.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.closed = true
	close(q.submissions)
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
