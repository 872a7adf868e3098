package timer_test

import (
	"testing"
	"time"

	"github.com/okian/choozi/internal/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_FiresInDeadlineOrder(t *testing.T) {
	m := timer.NewManual()
	var got []string
	m.AfterFunc(300*time.Millisecond, func() { got = append(got, "c") })
	m.AfterFunc(100*time.Millisecond, func() { got = append(got, "a") })
	m.AfterFunc(100*time.Millisecond, func() { got = append(got, "b") })

	m.Advance(99 * time.Millisecond)
	assert.Empty(t, got)
	assert.Equal(t, 3, m.Pending())

	m.Advance(1 * time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, got)

	m.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, 1100*time.Millisecond, m.Now())
	assert.Zero(t, m.Pending())
}

func TestManual_Stop(t *testing.T) {
	m := timer.NewManual()
	fired := false
	tm := m.AfterFunc(time.Second, func() { fired = true })

	require.True(t, tm.Stop())
	assert.False(t, tm.Stop(), "second stop reports nothing pending")

	m.Advance(2 * time.Second)
	assert.False(t, fired)
}

func TestManual_StopAfterFire(t *testing.T) {
	m := timer.NewManual()
	tm := m.AfterFunc(10*time.Millisecond, func() {})
	m.Advance(10 * time.Millisecond)
	assert.False(t, tm.Stop())
}

func TestManual_ChainedCallbacks(t *testing.T) {
	m := timer.NewManual()
	var at []time.Duration
	var step func()
	step = func() {
		at = append(at, m.Now())
		if len(at) < 4 {
			m.AfterFunc(500*time.Millisecond, step)
		}
	}
	m.AfterFunc(500*time.Millisecond, step)

	m.Advance(2 * time.Second)
	assert.Equal(t, []time.Duration{
		500 * time.Millisecond,
		1000 * time.Millisecond,
		1500 * time.Millisecond,
		2000 * time.Millisecond,
	}, at)
}

func TestManual_ZeroDelayRunsOnNextAdvance(t *testing.T) {
	m := timer.NewManual()
	ran := false
	m.AfterFunc(-time.Second, func() { ran = true })
	assert.False(t, ran)

	d, ok := m.Next()
	require.True(t, ok)
	assert.Zero(t, d)

	m.Advance(0)
	assert.True(t, ran)

	_, ok = m.Next()
	assert.False(t, ok)
}
