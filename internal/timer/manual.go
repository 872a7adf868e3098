package timer

import (
	"sync"
	"time"
)

// Manual is a Scheduler on a virtual clock. Time only moves when Advance is
// called, and due callbacks run synchronously on the caller's goroutine in
// deadline order (ties in scheduling order).
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	seq     uint64
	pending []*manualTimer
}

type manualTimer struct {
	m    *Manual
	at   time.Duration
	seq  uint64
	f    func()
	done bool
}

// NewManual returns a virtual clock at time zero.
func NewManual() *Manual {
	return &Manual{}
}

// AfterFunc schedules f at Now()+d. Negative durations count as zero.
func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{m: m, at: m.now + d, seq: m.seq, f: f}
	m.pending = append(m.pending, t)
	return t
}

// Now returns the virtual time elapsed since NewManual.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of callbacks that have not run or been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Next returns how far away the earliest pending callback is.
func (m *Manual) Next() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.earliest()
	if t == nil {
		return 0, false
	}
	return t.at - m.now, true
}

// Advance moves the clock forward by d, running every callback that falls
// due on the way, including callbacks scheduled by those callbacks.
func (m *Manual) Advance(d time.Duration) {
	if d < 0 {
		d = 0
	}
	m.mu.Lock()
	target := m.now + d
	for {
		t := m.earliest()
		if t == nil || t.at > target {
			break
		}
		m.remove(t)
		t.done = true
		m.now = t.at
		m.mu.Unlock()
		t.f()
		m.mu.Lock()
	}
	m.now = target
	m.mu.Unlock()
}

// earliest must be called with mu held.
func (m *Manual) earliest() *manualTimer {
	var best *manualTimer
	for _, t := range m.pending {
		if best == nil || t.at < best.at || (t.at == best.at && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

// remove must be called with mu held.
func (m *Manual) remove(t *manualTimer) {
	for i, p := range m.pending {
		if p == t {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return
		}
	}
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	t.m.remove(t)
	return true
}
