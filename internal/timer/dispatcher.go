package timer

import (
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// Poster hands fn to the goroutine that owns session state. It reports
// false when fn could not be delivered (for example after shutdown).
type Poster func(fn func()) bool

// Dispatcher is a Scheduler backed by a real or mock clock. Callbacks are
// not run on the clock's goroutine: they are posted to the owner loop, and
// a callback whose timer was stopped before it reached the loop is dropped.
type Dispatcher struct {
	clock clock.Clock
	post  Poster
}

// NewDispatcher returns a Dispatcher. A nil clock means the wall clock.
func NewDispatcher(c clock.Clock, post Poster) *Dispatcher {
	if c == nil {
		c = clock.New()
	}
	return &Dispatcher{clock: c, post: post}
}

type dispatchedTimer struct {
	inner   *clock.Timer
	stopped atomic.Bool
	fired   atomic.Bool
}

// AfterFunc implements Scheduler.
func (d *Dispatcher) AfterFunc(dur time.Duration, f func()) Timer {
	t := &dispatchedTimer{}
	t.inner = d.clock.AfterFunc(dur, func() {
		d.post(func() {
			if t.stopped.Load() {
				return
			}
			t.fired.Store(true)
			f()
		})
	})
	return t
}

func (t *dispatchedTimer) Stop() bool {
	if t.stopped.Swap(true) {
		return false
	}
	t.inner.Stop()
	return !t.fired.Load()
}
