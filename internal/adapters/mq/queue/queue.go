// Package queue provides the bounded in-memory queue that decouples score
// report intake from processing.
package queue

import (
	"context"
	"sync"

	"github.com/tannerhall/bracketeer/internal/domain/model"
	"github.com/tannerhall/bracketeer/pkg/metrics"
)

// Report is the payload type flowing through the queue.
type Report = model.ScoreReport

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a report. Returns false when the queue is full or closed.
	Enqueue(ctx context.Context, r Report) bool

	// Dequeue returns the channel workers consume from. The channel closes
	// when the queue closes.
	Dequeue(ctx context.Context) <-chan Report

	// Len returns the current number of queued reports.
	Len(ctx context.Context) int

	// Close stops intake and closes the dequeue channel once drained.
	Close() error
}

// InMemoryQueue implements Queue over a buffered channel.
type InMemoryQueue struct {
	reports  chan Report
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.reports = make(chan Report, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)

	return q
}

// Enqueue adds a report to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Report) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		return false
	}

	select {
	case q.reports <- r:
		metrics.UpdateQueueSize(len(q.reports))
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		return false
	default:
		// Buffer full: reject rather than block the submitter.
		metrics.RecordQueueEnqueueError()
		return false
	}
}

// Dequeue returns the consumption channel.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Report {
	return q.reports
}

// Len returns the current number of queued reports.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.reports)
	metrics.UpdateQueueSize(size)
	return size
}

// Close stops intake. Queued reports remain consumable until drained.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.reports)
	q.closed = true
	return nil
}
