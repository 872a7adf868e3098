package game

import (
	"time"

	"github.com/okian/choozi/internal/timer"
)

// SettleDelay is the quiet period after the last contact set change.
const SettleDelay = 2000 * time.Millisecond

// SettleTimer is a restartable single-shot delay. Each Restart supersedes
// the previous schedule; a callback belonging to an older generation is
// ignored even if its timer could not be stopped in time.
type SettleTimer struct {
	sched   timer.Scheduler
	delay   time.Duration
	fire    func()
	gen     uint64
	pending timer.Timer
}

// NewSettleTimer returns an idle timer that calls fire after delay.
func NewSettleTimer(sched timer.Scheduler, delay time.Duration, fire func()) *SettleTimer {
	return &SettleTimer{sched: sched, delay: delay, fire: fire}
}

// Restart cancels any pending fire and schedules a new one.
func (s *SettleTimer) Restart() {
	s.Cancel()
	gen := s.gen
	s.pending = s.sched.AfterFunc(s.delay, func() {
		if gen != s.gen {
			return
		}
		s.pending = nil
		s.gen++
		s.fire()
	})
}

// Cancel drops the pending fire, if any, without calling back.
func (s *SettleTimer) Cancel() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.gen++
}

// scheduled reports whether a fire is pending.
func (s *SettleTimer) scheduled() bool {
	return s.pending != nil
}
