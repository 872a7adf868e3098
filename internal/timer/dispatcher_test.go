package timer_test

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/okian/choozi/internal/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoop() (chan func(), timer.Poster) {
	posted := make(chan func(), 8)
	return posted, func(fn func()) bool {
		posted <- fn
		return true
	}
}

func receive(t *testing.T, posted chan func()) func() {
	t.Helper()
	select {
	case fn := <-posted:
		return fn
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for posted callback")
		return nil
	}
}

func TestDispatcher_PostsToLoop(t *testing.T) {
	mock := clock.NewMock()
	posted, post := newLoop()
	d := timer.NewDispatcher(mock, post)

	fired := false
	d.AfterFunc(2*time.Second, func() { fired = true })

	mock.Add(time.Second)
	select {
	case <-posted:
		t.Fatal("callback posted early")
	case <-time.After(20 * time.Millisecond):
	}

	mock.Add(time.Second)
	fn := receive(t, posted)
	assert.False(t, fired, "callback must not run on the clock goroutine")
	fn()
	assert.True(t, fired)
}

func TestDispatcher_StopBeforeFire(t *testing.T) {
	mock := clock.NewMock()
	posted, post := newLoop()
	d := timer.NewDispatcher(mock, post)

	tm := d.AfterFunc(time.Second, func() { t.Fatal("stopped timer fired") })
	require.True(t, tm.Stop())
	assert.False(t, tm.Stop())

	mock.Add(2 * time.Second)
	select {
	case fn := <-posted:
		fn()
	case <-time.After(20 * time.Millisecond):
	}
}

func TestDispatcher_StopWhilePosted(t *testing.T) {
	mock := clock.NewMock()
	posted, post := newLoop()
	d := timer.NewDispatcher(mock, post)

	fired := false
	tm := d.AfterFunc(time.Second, func() { fired = true })
	mock.Add(time.Second)
	fn := receive(t, posted)

	// The clock has fired but the loop has not run the callback yet.
	assert.True(t, tm.Stop())
	fn()
	assert.False(t, fired)
}
