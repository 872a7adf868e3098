package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	worker "github.com/okian/choozi/internal/adapters/mq/worker"
	logging "github.com/okian/choozi/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	items chan string
}

func newMockQueue() *mockQueue {
	return &mockQueue{items: make(chan string, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan string {
	return mq.items
}

type recorder struct {
	mu     sync.Mutex
	seen   []string
	active int
	maxAct int
}

func (r *recorder) Handle(_ context.Context, item string) error {
	r.mu.Lock()
	r.active++
	if r.active > r.maxAct {
		r.maxAct = r.active
	}
	r.mu.Unlock()

	time.Sleep(time.Millisecond)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.active--
	r.seen = append(r.seen, item)
	if item == "bad" {
		return errors.New("bad item")
	}
	return nil
}

func (r *recorder) snapshot() ([]string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...), r.maxAct
}

func TestRunner(t *testing.T) {
	convey.Convey("Given a runner over a queue", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		rec := &recorder{}
		r := worker.NewRunner[string](q, rec, worker.WithName("test-loop"), worker.WithLogger(logging.Get()))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go r.Run(ctx)

		convey.Convey("When items are enqueued", func() {
			for _, s := range []string{"a", "bad", "b", "c"} {
				q.items <- s
			}

			convey.Convey("Then they are handled one at a time in order, errors included", func() {
				deadline := time.Now().Add(time.Second)
				var seen []string
				var maxActive int
				for time.Now().Before(deadline) {
					seen, maxActive = rec.snapshot()
					if len(seen) == 4 {
						break
					}
					time.Sleep(5 * time.Millisecond)
				}
				convey.So(seen, convey.ShouldResemble, []string{"a", "bad", "b", "c"})
				convey.So(maxActive, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When shut down", func() {
			err := r.Shutdown(context.Background())

			convey.Convey("Then Run returns", func() {
				convey.So(err, convey.ShouldBeNil)
				_, open := <-r.Done()
				convey.So(open, convey.ShouldBeFalse)
			})

			convey.Convey("Then a second shutdown is harmless", func() {
				convey.So(r.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the queue is closed", func() {
			close(q.items)

			convey.Convey("Then Run returns", func() {
				select {
				case <-r.Done():
				case <-time.After(time.Second):
					convey.So("runner still running", convey.ShouldBeEmpty)
				}
			})
		})
	})

	convey.Convey("Given a runner whose handler is a function", t, func() {
		q := newMockQueue()
		got := make(chan string, 1)
		r := worker.NewRunner[string](q, worker.HandlerFunc[string](func(_ context.Context, s string) error {
			got <- s
			return nil
		}))
		ctx, cancel := context.WithCancel(context.Background())

		go r.Run(ctx)
		q.items <- "x"

		convey.So(<-got, convey.ShouldEqual, "x")

		convey.Convey("When the context is cancelled", func() {
			cancel()

			convey.Convey("Then Shutdown still succeeds", func() {
				convey.So(r.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
		cancel()
	})
}
