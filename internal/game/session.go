// Package game runs one selection round at a time: it tracks contacts,
// waits for the set to settle, picks the winner and plays the timed reveal.
//
// A Session is driven from a single control flow. Timer callbacks are
// expected to be delivered on that same flow (see timer.Dispatcher), so
// nothing in this package takes a lock.
package game

import (
	"context"

	"github.com/google/uuid"

	"github.com/okian/choozi/internal/domain/model"
	"github.com/okian/choozi/internal/domain/selection"
	"github.com/okian/choozi/internal/domain/tracker"
	"github.com/okian/choozi/internal/timer"
	"github.com/okian/choozi/pkg/logger"
	"github.com/okian/choozi/pkg/metrics"
)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithEffects sets the audio/haptic collaborator.
func WithEffects(e Effects) Option {
	return func(s *Session) {
		if e != nil {
			s.effects = e
		}
	}
}

// WithObserver registers fn to receive a snapshot after every state change.
func WithObserver(fn func(model.Snapshot)) Option {
	return func(s *Session) {
		s.observer = fn
	}
}

// WithResolver replaces the winner rule. Intended for tests.
func WithResolver(r selection.Resolver) Option {
	return func(s *Session) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithSoundEnabled sets the initial sound preference. Sound is on by default.
func WithSoundEnabled(on bool) Option {
	return func(s *Session) {
		s.soundEnabled = on
	}
}

// WithRoundIDs sets the generator for round identifiers.
func WithRoundIDs(next func() string) Option {
	return func(s *Session) {
		if next != nil {
			s.nextRoundID = next
		}
	}
}

// Session owns the contact set, the settle timer and the reveal sequence.
type Session struct {
	log         logger.Logger
	effects     Effects
	observer    func(model.Snapshot)
	resolver    selection.Resolver
	nextRoundID func() string

	tracker *tracker.Tracker
	settle  *SettleTimer
	seq     *Sequencer

	// inputCtx is the detached context of the last membership change; the
	// settle fire runs under it.
	inputCtx context.Context

	roundID       string
	winner        *model.Contact
	screen        model.Color
	onlyWinner    bool
	winnerHidden  bool
	revealVisible bool
	soundEnabled  bool
}

// New returns a session in the waiting phase that schedules its delays on sched.
func New(sched timer.Scheduler, opts ...Option) *Session {
	s := &Session{
		log:          logger.Nop(),
		effects:      NopEffects{},
		resolver:     selection.BottomRight,
		nextRoundID:  uuid.NewString,
		tracker:      tracker.New(),
		inputCtx:     context.Background(),
		screen:       model.ColorBlack,
		soundEnabled: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.settle = NewSettleTimer(sched, SettleDelay, s.onSettle)
	s.seq = newSequencer(sched, s)
	return s
}

// Phase returns the current public phase.
func (s *Session) Phase() model.Phase {
	return s.seq.Phase()
}

// Ingest applies one touch batch. Cancel is handled exactly like end.
func (s *Session) Ingest(ctx context.Context, ev model.TouchEvent) error {
	switch ev.Kind {
	case model.TouchBegin:
		s.Begin(ctx, ev.Touches)
	case model.TouchMove:
		s.Move(ctx, ev.Touches)
	case model.TouchEnd, model.TouchCancel:
		s.End(ctx, ev.Touches)
	default:
		return ErrUnknownTouchKind
	}
	return nil
}

func (s *Session) accepting(ctx context.Context, kind model.TouchKind) bool {
	phase := s.seq.Phase()
	if phase.AcceptsTouches() {
		return true
	}
	metrics.RecordTouchIgnored(string(kind))
	s.log.Debug(ctx, "touch ignored", logger.String("kind", string(kind)), logger.String("phase", phase.String()))
	return false
}

// Begin adds a contact for every new touch id and restarts the quiet period
// when the set grew. It reports whether any contact was created.
func (s *Session) Begin(ctx context.Context, touches []model.Touch) bool {
	if !s.accepting(ctx, model.TouchBegin) {
		return false
	}
	metrics.RecordTouchIngested(string(model.TouchBegin))
	created := s.tracker.Begin(touches)
	if created == 0 {
		return false
	}
	if s.roundID == "" {
		s.roundID = s.nextRoundID()
	}
	metrics.RecordContactsCreated(created)
	s.membershipChanged(ctx)
	return true
}

// Move updates contact positions. Position changes alone do not restart
// the quiet period.
func (s *Session) Move(ctx context.Context, touches []model.Touch) bool {
	if !s.accepting(ctx, model.TouchMove) {
		return false
	}
	metrics.RecordTouchIngested(string(model.TouchMove))
	if s.tracker.Move(touches) == 0 {
		return false
	}
	s.publish()
	return true
}

// End keeps only the contacts listed in survivors. An empty result cancels
// the quiet period; any other removal restarts it.
func (s *Session) End(ctx context.Context, survivors []model.Touch) bool {
	if !s.accepting(ctx, model.TouchEnd) {
		return false
	}
	metrics.RecordTouchIngested(string(model.TouchEnd))
	if s.tracker.End(survivors) == 0 {
		return false
	}
	s.membershipChanged(ctx)
	return true
}

func (s *Session) membershipChanged(ctx context.Context) {
	n := s.tracker.Len()
	metrics.UpdateActiveContacts(n)
	s.inputCtx = context.WithoutCancel(ctx)
	if n == 0 {
		s.settle.Cancel()
		s.roundID = ""
	} else {
		s.settle.Restart()
		metrics.RecordSettleRestart()
	}
	s.publish()
}

func (s *Session) onSettle() {
	ctx := s.inputCtx
	metrics.RecordSettleFired()
	contacts := s.tracker.Contacts()
	if len(contacts) == 0 || s.seq.Running() {
		return
	}
	w, err := s.resolver.Resolve(contacts)
	if err != nil {
		metrics.RecordErrorByComponent("game", "resolve")
		s.log.Error(ctx, "resolve winner", logger.Error(err))
		return
	}
	s.winner = &w
	s.log.Info(ctx, "winner resolved",
		logger.String("round_id", s.roundID),
		logger.String("winner", w.ID),
		logger.Int("contacts", len(contacts)))
	if s.seq.Start(ctx) {
		metrics.RecordRoundStarted()
	}
}

// SetSoundEnabled toggles the reveal sound for subsequent rounds.
func (s *Session) SetSoundEnabled(ctx context.Context, on bool) {
	s.soundEnabled = on
	s.log.Debug(ctx, "sound preference changed", logger.Bool("enabled", on))
	s.publish()
}

// Reset cancels every pending delay and returns to an empty waiting state.
func (s *Session) Reset(ctx context.Context) {
	wasRunning := s.seq.Cancel()
	s.clear()
	s.log.Debug(ctx, "session reset", logger.Bool("interrupted_round", wasRunning))
	s.publish()
}

func (s *Session) clear() {
	s.settle.Cancel()
	s.tracker.Reset()
	s.winner = nil
	s.roundID = ""
	s.screen = model.ColorBlack
	s.onlyWinner = false
	s.winnerHidden = false
	s.revealVisible = false
	metrics.UpdateActiveContacts(0)
}

func (s *Session) apply(ctx context.Context, r Request) {
	switch r {
	case RequestShowOnlyWinner:
		s.onlyWinner = true
	case RequestScreenWinnerColor:
		if s.winner != nil {
			s.screen = s.winner.Color
		}
	case RequestScreenBlack:
		s.screen = model.ColorBlack
	case RequestHaptic:
		s.effects.HapticPulse(ctx, s.roundID)
	case RequestHideWinner:
		s.winnerHidden = true
	case RequestScreenDarkGray:
		s.screen = model.ColorDarkGray
	case RequestShowReveal:
		s.revealVisible = true
	case RequestRevealSound:
		if s.soundEnabled {
			s.effects.PlayRevealSound(ctx, s.roundID)
		}
	case RequestFullReset:
		s.clear()
	}
}

func (s *Session) entered(ctx context.Context, step Step) {
	metrics.RecordPhaseTransition(step.Phase.String(), step.Name)
	s.log.Debug(ctx, "step entered",
		logger.String("round_id", s.roundID),
		logger.String("phase", step.Phase.String()),
		logger.String("step", step.Name))
	s.publish()
}

func (s *Session) finished(ctx context.Context) {
	metrics.RecordRoundCompleted()
	s.log.Info(ctx, "round finished")
	s.publish()
}

func (s *Session) publish() {
	if s.observer != nil {
		s.observer(s.Snapshot())
	}
}

// Snapshot returns a copy of the current state for rendering.
func (s *Session) Snapshot() model.Snapshot {
	phase := s.seq.Phase()
	contacts := s.tracker.Contacts()
	snap := model.Snapshot{
		Phase:         phase,
		Step:          s.seq.Step(),
		RoundID:       s.roundID,
		ScreenColor:   s.screen,
		Contacts:      contacts,
		Circles:       s.circles(phase, contacts),
		PaletteCursor: s.tracker.Cursor(),
		Flags: model.Flags{
			TouchAccepting: phase.AcceptsTouches(),
			SoundEnabled:   s.soundEnabled,
			RevealVisible:  s.revealVisible,
			OnlyWinner:     s.onlyWinner,
			WinnerHidden:   s.winnerHidden,
		},
	}
	if s.winner != nil {
		w := *s.winner
		snap.Winner = &w
	}
	return snap
}

func (s *Session) circles(phase model.Phase, contacts []model.Contact) []model.Circle {
	if s.onlyWinner && s.winner != nil {
		if s.winnerHidden {
			return []model.Circle{}
		}
		return []model.Circle{{
			ID:         s.winner.ID,
			X:          s.winner.X,
			Y:          s.winner.Y,
			Color:      s.winner.Color,
			Emphasized: emphasized(phase),
		}}
	}
	out := make([]model.Circle, len(contacts))
	for i, c := range contacts {
		out[i] = model.Circle{ID: c.ID, X: c.X, Y: c.Y, Color: c.Color}
	}
	return out
}

func emphasized(p model.Phase) bool {
	switch p {
	case model.PhaseHidingLosers, model.PhaseExpanding, model.PhaseContracting, model.PhaseRevealing:
		return true
	}
	return false
}
