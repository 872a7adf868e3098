// Package queue provides the bounded in-memory queue used for the session
// inbox and the effects outbox.
package queue

import (
	"context"
	"sync"

	"github.com/okian/choozi/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 1024
)

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue[T any] interface {
	// Enqueue adds an item to the queue.
	// Returns false if the queue is full or closed and the item was not enqueued.
	Enqueue(ctx context.Context, item T) bool

	// EnqueueWait blocks until the item is enqueued, ctx is done or the
	// queue is closed.
	EnqueueWait(ctx context.Context, item T) error

	// Dequeue returns a channel that will receive items as they become available.
	// The channel will be closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan T

	// TryDequeue removes one item without blocking.
	TryDequeue() (T, bool)

	// Len returns the current number of queued items.
	Len() int

	// Close stops accepting new items. Items already queued can still be dequeued.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue[T any] struct {
	items        chan T
	capacity     int
	instrumented bool

	// done is closed before the lock is taken in Close, releasing blocked
	// EnqueueWait callers that hold the read lock.
	done      chan struct{}
	closeOnce sync.Once

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue[T any](opts ...Option) *InMemoryQueue[T] {
	cfg := config{capacity: defaultQueueCapacity, instrumented: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	q := &InMemoryQueue[T]{
		items:        make(chan T, cfg.capacity),
		capacity:     cfg.capacity,
		instrumented: cfg.instrumented,
		done:         make(chan struct{}),
	}

	if q.instrumented {
		metrics.UpdateQueueCapacity(q.capacity)
		metrics.UpdateQueueSize(0, q.capacity)
	}

	return q
}

// Cap returns the queue capacity.
func (q *InMemoryQueue[T]) Cap() int {
	return q.capacity
}

func (q *InMemoryQueue[T]) enqueueFailed(reason string) {
	if !q.instrumented {
		return
	}
	metrics.RecordQueueEnqueueError()
	metrics.RecordErrorByComponent("queue", reason)
}

func (q *InMemoryQueue[T]) enqueued() {
	if !q.instrumented {
		return
	}
	metrics.RecordQueueEnqueue()
	metrics.UpdateQueueSize(len(q.items), q.capacity)
}

func (q *InMemoryQueue[T]) dequeued() {
	if !q.instrumented {
		return
	}
	metrics.RecordQueueDequeue()
	metrics.UpdateQueueSize(len(q.items), q.capacity)
}

// Enqueue adds an item to the queue.
func (q *InMemoryQueue[T]) Enqueue(ctx context.Context, item T) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.enqueueFailed("closed")
		return false
	}

	select {
	case <-ctx.Done():
		q.enqueueFailed("context_cancelled")
		return false
	default:
	}

	select {
	case q.items <- item:
		q.enqueued()
		return true
	default:
		q.enqueueFailed("queue_full")
		return false
	}
}

// EnqueueWait adds an item, waiting for room if the queue is full.
func (q *InMemoryQueue[T]) EnqueueWait(ctx context.Context, item T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.enqueueFailed("closed")
		return ErrClosed
	}

	select {
	case q.items <- item:
		q.enqueued()
		return nil
	case <-q.done:
		q.enqueueFailed("closed")
		return ErrClosed
	case <-ctx.Done():
		q.enqueueFailed("context_cancelled")
		return ctx.Err()
	}
}

// Dequeue returns a channel that will receive items as they become available.
func (q *InMemoryQueue[T]) Dequeue(ctx context.Context) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case item, ok := <-q.items:
				if !ok {
					return
				}
				select {
				case out <- item:
					q.dequeued()
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// TryDequeue removes one item without blocking.
func (q *InMemoryQueue[T]) TryDequeue() (T, bool) {
	select {
	case item, ok := <-q.items:
		if ok {
			q.dequeued()
		}
		return item, ok
	default:
		var zero T
		return zero, false
	}
}

// Len returns the current number of queued items.
func (q *InMemoryQueue[T]) Len() int {
	return len(q.items)
}

// Close stops the queue. It is safe to call more than once.
func (q *InMemoryQueue[T]) Close() error {
	q.closeOnce.Do(func() {
		close(q.done)

		q.mu.Lock()
		defer q.mu.Unlock()
		close(q.items)
		q.closed = true
	})
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue[T]) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
