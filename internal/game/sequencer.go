package game

import (
	"context"
	"time"

	"github.com/okian/choozi/internal/domain/model"
	"github.com/okian/choozi/internal/timer"
)

// Request is a side effect a step asks the session to carry out on entry.
type Request int

// Step entry requests.
const (
	RequestShowOnlyWinner Request = iota + 1
	RequestScreenWinnerColor
	RequestScreenBlack
	RequestHaptic
	RequestHideWinner
	RequestScreenDarkGray
	RequestShowReveal
	RequestRevealSound
	RequestFullReset
)

var requestNames = map[Request]string{
	RequestShowOnlyWinner:    "show-only-winner",
	RequestScreenWinnerColor: "screen-winner-color",
	RequestScreenBlack:       "screen-black",
	RequestHaptic:            "haptic",
	RequestHideWinner:        "hide-winner",
	RequestScreenDarkGray:    "screen-dark-gray",
	RequestShowReveal:        "show-reveal",
	RequestRevealSound:       "reveal-sound",
	RequestFullReset:         "full-reset",
}

func (r Request) String() string {
	if n, ok := requestNames[r]; ok {
		return n
	}
	return "unknown"
}

// Step is one entry of the reveal sequence. Delay is the time spent in the
// step before the next one is entered.
type Step struct {
	Name     string
	Phase    model.Phase
	Delay    time.Duration
	Requests []Request
}

// StepWaiting names the idle step between rounds.
const StepWaiting = "waiting"

// Steps is the reveal sequence, in order. The last step completes
// synchronously and returns the sequencer to waiting.
var Steps = []Step{
	{Name: "hiding-losers", Phase: model.PhaseHidingLosers, Delay: 500 * time.Millisecond,
		Requests: []Request{RequestShowOnlyWinner}},
	{Name: "expanding", Phase: model.PhaseExpanding, Delay: 500 * time.Millisecond,
		Requests: []Request{RequestScreenWinnerColor}},
	{Name: "contracting", Phase: model.PhaseContracting, Delay: 500 * time.Millisecond,
		Requests: []Request{RequestScreenBlack, RequestHaptic}},
	{Name: "contracting-hold", Phase: model.PhaseContracting, Delay: 500 * time.Millisecond},
	{Name: "fading", Phase: model.PhaseFading, Delay: 500 * time.Millisecond,
		Requests: []Request{RequestHideWinner}},
	{Name: "fading-hold", Phase: model.PhaseFading, Delay: 1000 * time.Millisecond},
	{Name: "revealing", Phase: model.PhaseRevealing, Delay: 3000 * time.Millisecond,
		Requests: []Request{RequestScreenDarkGray, RequestShowReveal, RequestRevealSound}},
	{Name: "resetting", Phase: model.PhaseResetting,
		Requests: []Request{RequestFullReset}},
}

// SequenceDuration is the time from the first step to the return to waiting.
func SequenceDuration() time.Duration {
	var d time.Duration
	for _, s := range Steps {
		d += s.Delay
	}
	return d
}

// RevealOffset is the time from the first step to the revealing step.
func RevealOffset() time.Duration {
	var d time.Duration
	for _, s := range Steps {
		if s.Phase == model.PhaseRevealing {
			return d
		}
		d += s.Delay
	}
	return d
}

type stage interface {
	apply(ctx context.Context, r Request)
	entered(ctx context.Context, step Step)
	finished(ctx context.Context)
}

// Sequencer walks Steps with at most one delay pending at a time.
type Sequencer struct {
	sched   timer.Scheduler
	stage   stage
	ctx     context.Context
	idx     int
	gen     uint64
	pending timer.Timer
}

func newSequencer(sched timer.Scheduler, st stage) *Sequencer {
	return &Sequencer{sched: sched, stage: st, idx: -1}
}

// Start enters the first step. It reports false and does nothing when a
// sequence is already running.
func (q *Sequencer) Start(ctx context.Context) bool {
	if q.idx >= 0 {
		return false
	}
	q.ctx = context.WithoutCancel(ctx)
	q.enter(0)
	return true
}

// Cancel stops the running sequence, if any, and drops its pending delay.
// The step's effects are not undone. It reports whether a sequence was
// running.
func (q *Sequencer) Cancel() bool {
	running := q.idx >= 0
	if q.pending != nil {
		q.pending.Stop()
		q.pending = nil
	}
	q.gen++
	q.idx = -1
	return running
}

// Running reports whether a sequence is in progress.
func (q *Sequencer) Running() bool {
	return q.idx >= 0
}

// Phase returns the public phase of the current step.
func (q *Sequencer) Phase() model.Phase {
	if q.idx < 0 {
		return model.PhaseWaiting
	}
	return Steps[q.idx].Phase
}

// Step returns the name of the current step.
func (q *Sequencer) Step() string {
	if q.idx < 0 {
		return StepWaiting
	}
	return Steps[q.idx].Name
}

func (q *Sequencer) enter(i int) {
	q.idx = i
	step := Steps[i]
	ctx := q.ctx
	for _, r := range step.Requests {
		q.stage.apply(ctx, r)
	}

	if i == len(Steps)-1 {
		q.stage.entered(ctx, step)
		q.idx = -1
		q.stage.finished(ctx)
		return
	}

	// Schedule before notifying so observers never see a step whose delay
	// has not started yet.
	q.gen++
	gen := q.gen
	q.pending = q.sched.AfterFunc(step.Delay, func() {
		if gen != q.gen {
			return
		}
		q.pending = nil
		q.enter(i + 1)
	})
	q.stage.entered(ctx, step)
}
