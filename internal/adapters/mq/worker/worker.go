// Package worker runs the single consumer that drains a queue.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/choozi/pkg/logger"
	"github.com/okian/choozi/pkg/metrics"
)

// Queue defines how the runner receives items.
type Queue[T any] interface {
	Dequeue(ctx context.Context) <-chan T
}

// Handler processes one item. Errors are logged and do not stop the runner.
type Handler[T any] interface {
	Handle(ctx context.Context, item T) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc[T any] func(ctx context.Context, item T) error

// Handle calls f.
func (f HandlerFunc[T]) Handle(ctx context.Context, item T) error {
	return f(ctx, item)
}

// Runner drains a queue on one goroutine, so every item is handled in
// enqueue order and no two items are handled at the same time.
type Runner[T any] struct {
	queue   Queue[T]
	handler Handler[T]
	name    string

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewRunner creates a runner with configuration options.
func NewRunner[T any](queue Queue[T], handler Handler[T], opts ...Option) *Runner[T] {
	cfg := options{name: "runner", logger: logger.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Runner[T]{
		queue:    queue,
		handler:  handler,
		name:     cfg.name,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   cfg.logger.Named(cfg.name),
	}
}

// Run handles items until ctx is cancelled, Shutdown is called or the
// queue is closed and drained.
func (r *Runner[T]) Run(ctx context.Context) {
	defer close(r.done)

	items := r.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.shutdown:
			return
		case item, ok := <-items:
			if !ok {
				return
			}
			r.handle(ctx, item)
		}
	}
}

func (r *Runner[T]) handle(ctx context.Context, item T) {
	start := time.Now()
	defer func() {
		metrics.RecordLoopLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := r.handler.Handle(ctx, item); err != nil {
		metrics.RecordErrorByComponent(r.name, "handler")
		r.logger.Error(ctx, "error handling item", logger.Error(err))
	}
}

// Done is closed when Run returns.
func (r *Runner[T]) Done() <-chan struct{} {
	return r.done
}

// Shutdown stops the runner and waits for Run to return.
func (r *Runner[T]) Shutdown(ctx context.Context) error {
	r.stopOnce.Do(func() { close(r.shutdown) })

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		r.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
