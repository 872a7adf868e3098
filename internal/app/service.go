// Package service runs the game session behind a single command loop and
// exposes it to the renderer bridge.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/okian/choozi/internal/adapters/mq/queue"
	"github.com/okian/choozi/internal/adapters/mq/worker"
	"github.com/okian/choozi/internal/domain/dedupe"
	"github.com/okian/choozi/internal/domain/model"
	"github.com/okian/choozi/internal/game"
	"github.com/okian/choozi/internal/timer"
	"github.com/okian/choozi/pkg/logger"
	"github.com/okian/choozi/pkg/metrics"
)

const (
	defaultInboxSize  = 1024
	defaultOutboxSize = 64
	defaultDedupeSize = 4096
	subscriberBuffer  = 16
	stopTimeout       = 5 * time.Second
)

// Service owns the one game session of the process. Every mutation runs on
// the session loop; readers get the last published snapshot.
type Service struct {
	mu sync.RWMutex

	// Core components
	session *game.Session
	inbox   *queue.InMemoryQueue[Command]
	outbox  *queue.InMemoryQueue[model.EffectRequest]
	runner  *worker.Runner[Command]
	deduper dedupe.Deduper
	cancel  context.CancelFunc

	// Configuration
	inboxSize      int
	outboxSize     int
	dedupeSize     int
	soundEnabled   bool
	hapticsEnabled bool
	clock          clock.Clock

	// State
	started  bool
	snapshot atomic.Pointer[model.Snapshot]

	subMu       sync.Mutex
	subscribers map[int]chan model.Snapshot
	nextSub     int

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithInboxSize sets the capacity of the session command inbox.
func WithInboxSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.inboxSize = size
		}
	}
}

// WithOutboxSize sets the capacity of the effect request outbox.
func WithOutboxSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.outboxSize = size
		}
	}
}

// WithDedupeSize sets how many touch batch ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithSoundEnabled sets the initial reveal sound preference.
func WithSoundEnabled(on bool) Option {
	return func(s *Service) {
		s.soundEnabled = on
	}
}

// WithHapticsEnabled controls whether haptic requests reach the outbox.
func WithHapticsEnabled(on bool) Option {
	return func(s *Service) {
		s.hapticsEnabled = on
	}
}

// WithClock sets the clock driving the session delays.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		inboxSize:      defaultInboxSize,
		outboxSize:     defaultOutboxSize,
		dedupeSize:     defaultDedupeSize,
		soundEnabled:   true,
		hapticsEnabled: true,
		clock:          clock.New(),
		subscribers:    make(map[int]chan model.Snapshot),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the session and starts the loop. Calling Start on a running
// service is a no-op. The loop outlives ctx; use Stop to end it.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting session service...")

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.inbox = queue.NewInMemoryQueue[Command](queue.WithCapacity(s.inboxSize))
	s.outbox = queue.NewInMemoryQueue[model.EffectRequest](
		queue.WithCapacity(s.outboxSize),
		queue.WithInstrumentation(false),
	)

	inbox := s.inbox
	sched := timer.NewDispatcher(s.clock, func(fn func()) bool {
		return inbox.EnqueueWait(loopCtx, Command{kind: commandTimer, fire: fn}) == nil
	})

	s.session = game.New(sched,
		game.WithLogger(s.logger.Named("game")),
		game.WithEffects(outboxEffects{s: s}),
		game.WithObserver(s.publish),
		game.WithSoundEnabled(s.soundEnabled),
	)
	s.publish(s.session.Snapshot())

	s.runner = worker.NewRunner[Command](s.inbox, worker.HandlerFunc[Command](s.handle),
		worker.WithName("session-loop"),
		worker.WithLogger(s.logger),
	)
	go s.runner.Run(loopCtx)

	s.started = true
	s.logger.Info(ctx, "session service started",
		logger.Int("inboxSize", s.inboxSize),
		logger.Int("outboxSize", s.outboxSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Bool("sound", s.soundEnabled),
		logger.Bool("haptics", s.hapticsEnabled),
	)

	return nil
}

// Stop resets the session on the loop, cancelling every pending delay,
// then stops the loop.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping session service...")

	if err := s.resetOnLoop(ctx, "teardown"); err != nil {
		s.logger.Warn(ctx, "teardown reset failed", logger.Error(err))
	}

	_ = s.inbox.Close()
	if err := s.runner.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "session loop shutdown", logger.Error(err))
	}
	s.cancel()
	_ = s.outbox.Close()

	s.subMu.Lock()
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	s.subMu.Unlock()

	s.started = false
	s.logger.Info(ctx, "session service stopped")
}

func (s *Service) handle(ctx context.Context, cmd Command) error {
	switch cmd.kind {
	case commandTouch:
		if err := s.session.Ingest(ctx, cmd.event); err != nil {
			return fmt.Errorf("ingest batch %q: %w", cmd.event.BatchID, err)
		}
	case commandSound:
		s.session.SetSoundEnabled(ctx, cmd.sound)
	case commandReset:
		s.session.Reset(ctx)
		metrics.RecordReset(cmd.reason)
		close(cmd.done)
	case commandTimer:
		cmd.fire()
	default:
		return fmt.Errorf("unknown command %s", cmd.kind)
	}
	return nil
}

func (s *Service) publish(snap model.Snapshot) {
	s.snapshot.Store(&snap)

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Slow subscriber; it will catch up on a later snapshot.
		}
	}
}

// loop returns the running inbox, or ErrNotStarted.
func (s *Service) loop() (*queue.InMemoryQueue[Command], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.inbox, nil
}

// Ingest validates a touch batch and queues it for the session. A batch id
// that was already accepted returns ErrDuplicate; a full inbox returns
// ErrBackpressure and forgets the batch id so the caller may retry.
func (s *Service) Ingest(ctx context.Context, ev model.TouchEvent) error {
	if !ev.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, ev.Kind)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}

	if ev.BatchID != "" && s.deduper.SeenAndRecord(ctx, ev.BatchID) {
		s.logger.Debug(ctx, "duplicate touch batch", logger.String("batchID", ev.BatchID))
		return ErrDuplicate
	}

	if !s.inbox.Enqueue(ctx, Command{kind: commandTouch, event: ev}) {
		if ev.BatchID != "" {
			s.deduper.Unrecord(ctx, ev.BatchID)
		}
		return ErrBackpressure
	}
	return nil
}

// SetSoundEnabled queues a sound preference change.
func (s *Service) SetSoundEnabled(ctx context.Context, on bool) error {
	inbox, err := s.loop()
	if err != nil {
		return err
	}
	return s.wrapEnqueue(inbox.EnqueueWait(ctx, Command{kind: commandSound, sound: on}))
}

// Reset forces the session back to an empty waiting state and returns once
// the loop has applied it.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return s.resetOnLoop(ctx, "manual")
}

// resetOnLoop must be called with mu held.
func (s *Service) resetOnLoop(ctx context.Context, reason string) error {
	done := make(chan struct{})
	if err := s.wrapEnqueue(s.inbox.EnqueueWait(ctx, Command{kind: commandReset, reason: reason, done: done})); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-s.runner.Done():
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) wrapEnqueue(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, queue.ErrClosed) {
		return ErrStopped
	}
	return err
}

// Snapshot returns the last published session state.
func (s *Service) Snapshot() model.Snapshot {
	if snap := s.snapshot.Load(); snap != nil {
		return *snap
	}
	return model.Snapshot{
		Phase:       model.PhaseWaiting,
		Step:        game.StepWaiting,
		ScreenColor: model.ColorBlack,
		Contacts:    []model.Contact{},
		Circles:     []model.Circle{},
		Flags: model.Flags{
			TouchAccepting: true,
			SoundEnabled:   s.soundEnabled,
		},
	}
}

// Subscribe returns a channel receiving every published snapshot, starting
// with the current one, and a function that ends the subscription. Slow
// subscribers miss intermediate snapshots. The channel is closed on Stop.
func (s *Service) Subscribe() (<-chan model.Snapshot, func(), error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}

	ch := make(chan model.Snapshot, subscriberBuffer)

	s.subMu.Lock()
	ch <- s.Snapshot()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if _, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(ch)
			}
		})
	}, nil
}

// DrainEffects removes up to max queued effect requests; max <= 0 drains
// everything queued.
func (s *Service) DrainEffects(_ context.Context, limit int) []model.EffectRequest {
	s.mu.RLock()
	outbox := s.outbox
	s.mu.RUnlock()

	out := []model.EffectRequest{}
	if outbox == nil {
		return out
	}
	for limit <= 0 || len(out) < limit {
		req, ok := outbox.TryDequeue()
		if !ok {
			break
		}
		out = append(out, req)
	}
	return out
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.Snapshot()
	stats := map[string]interface{}{
		"started":    s.started,
		"inboxSize":  s.inboxSize,
		"outboxSize": s.outboxSize,
		"dedupeSize": s.dedupeSize,
		"phase":      snap.Phase.String(),
		"step":       snap.Step,
		"contacts":   len(snap.Contacts),
		"sound":      snap.Flags.SoundEnabled,
		"haptics":    s.hapticsEnabled,
	}

	if s.started {
		stats["inboxLength"] = s.inbox.Len()
		stats["inboxCapacity"] = s.inbox.Cap()
		stats["outboxLength"] = s.outbox.Len()
		stats["outboxCapacity"] = s.outbox.Cap()
		stats["dedupeEntries"] = s.deduper.Size()
		stats["roundID"] = snap.RoundID
		metrics.UpdateQueueSize(s.inbox.Len(), s.inbox.Cap())
	}

	return stats
}
