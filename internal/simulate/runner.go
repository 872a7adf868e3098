package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/okian/choozi/internal/domain/model"
	"github.com/okian/choozi/internal/game"
	"github.com/okian/choozi/internal/timer"
	"github.com/okian/choozi/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// ErrVerification is returned when at least one round did not behave as expected.
var ErrVerification = errors.New("simulation verification failed")

// countingEffects counts audio/haptic requests per round.
type countingEffects struct {
	sounds  map[string]int
	haptics map[string]int
}

func (e *countingEffects) PlayRevealSound(_ context.Context, roundID string) { e.sounds[roundID]++ }
func (e *countingEffects) HapticPulse(_ context.Context, roundID string)     { e.haptics[roundID]++ }

// player drives one session through consecutive rounds on a shared virtual clock.
type player struct {
	log     logger.Logger
	clk     *timer.Manual
	session *game.Session
	effects *countingEffects

	roundStart time.Duration
	lastStep   string
	timeline   []TimelineEntry
	roundIDs   []string
	winner     string
}

func newPlayer(cfg *Config, log logger.Logger) *player {
	p := &player{
		log:     log,
		clk:     timer.NewManual(),
		effects: &countingEffects{sounds: map[string]int{}, haptics: map[string]int{}},
	}
	p.session = game.New(p.clk,
		game.WithLogger(log.Named("game")),
		game.WithEffects(p.effects),
		game.WithSoundEnabled(cfg.Sound),
		game.WithRoundIDs(uuid.NewString),
		game.WithObserver(p.observe),
	)
	return p
}

func (p *player) observe(snap model.Snapshot) {
	if snap.RoundID != "" && (len(p.roundIDs) == 0 || p.roundIDs[len(p.roundIDs)-1] != snap.RoundID) {
		p.roundIDs = append(p.roundIDs, snap.RoundID)
	}
	if snap.Step == game.Steps[0].Name && snap.Winner != nil {
		p.winner = snap.Winner.ID
	}
	if snap.Step == p.lastStep {
		return
	}
	p.lastStep = snap.Step
	p.timeline = append(p.timeline, TimelineEntry{
		At:    p.clk.Now() - p.roundStart,
		Phase: snap.Phase,
		Step:  snap.Step,
	})
}

// play feeds a script to the session and runs the clock until every delay
// has fired.
func (p *player) play(ctx context.Context, index int, s scripted) (RoundResult, error) {
	p.roundStart = p.clk.Now()
	p.timeline = nil
	p.roundIDs = nil
	p.winner = ""

	down := make(map[string]model.Touch)
	var order []string
	fingers := 0

	for _, a := range s.Actions {
		p.clk.Advance(p.roundStart + a.At - p.clk.Now())

		ev := model.TouchEvent{BatchID: uuid.NewString(), Kind: a.Kind}
		switch a.Kind {
		case model.TouchBegin:
			fingers++
			down[a.Touch.ID] = a.Touch
			order = append(order, a.Touch.ID)
			ev.Touches = []model.Touch{a.Touch}
		case model.TouchMove:
			down[a.Touch.ID] = a.Touch
			ev.Touches = []model.Touch{a.Touch}
		case model.TouchEnd, model.TouchCancel:
			delete(down, a.Touch.ID)
			ev.Touches = survivors(order, down)
		}
		if err := p.session.Ingest(ctx, ev); err != nil {
			return RoundResult{}, fmt.Errorf("round %d: ingest %s: %w", index, a.Kind, err)
		}
	}

	expected := expectedWinner(survivors(order, down))

	for {
		next, ok := p.clk.Next()
		if !ok {
			break
		}
		p.clk.Advance(next)
	}

	// Every finger leaves the screen before the next round.
	if err := p.session.Ingest(ctx, model.TouchEvent{BatchID: uuid.NewString(), Kind: model.TouchEnd}); err != nil {
		return RoundResult{}, fmt.Errorf("round %d: lift all: %w", index, err)
	}

	res := RoundResult{
		Index:          index,
		Fingers:        fingers,
		Script:         s.Script,
		Timeline:       p.timeline,
		Winner:         p.winner,
		ExpectedWinner: expected,
		SettledAt:      expectedSettle(s.Script),
	}
	// An early lift can empty the set and start a fresh round id; the
	// one that settles is the last.
	if n := len(p.roundIDs); n > 0 {
		res.RoundID = p.roundIDs[n-1]
	}
	res.Sounds = p.effects.sounds[res.RoundID]
	res.Haptics = p.effects.haptics[res.RoundID]
	return res, nil
}

func survivors(order []string, down map[string]model.Touch) []model.Touch {
	out := make([]model.Touch, 0, len(down))
	for _, id := range order {
		if t, ok := down[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Run plays cfg.Rounds rounds and verifies each of them.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	log := logger.Named("simulate")
	report := &Report{Seed: cfg.Seed}
	report.Stats.StartTime = time.Now()

	log.Info(ctx, "starting simulation",
		logger.Int("rounds", cfg.Rounds),
		logger.Uint64("seed", cfg.Seed),
		logger.Int("maxFingers", cfg.MaxFingers),
		logger.Bool("sound", cfg.Sound))

	gen := newGenerator(cfg)
	p := newPlayer(cfg, log)

	for i := range cfg.Rounds {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("simulation interrupted: %w", err)
		}
		script := gen.round(i)
		res, err := p.play(ctx, i, script)
		if err != nil {
			return report, err
		}
		res.Problems = verifyRound(cfg, res)

		report.Stats.Rounds++
		report.Stats.Moves += script.moves
		if script.earlyLift {
			report.Stats.EarlyLifts++
		}
		if script.lateArrival {
			report.Stats.LateArrivals++
		}
		if len(res.Problems) == 0 {
			report.Stats.Passed++
		} else {
			report.Stats.Failed++
			log.Warn(ctx, "round failed verification",
				logger.Int("round", i),
				logger.String("round_id", res.RoundID),
				logger.Any("problems", res.Problems))
		}
		if cfg.Verbose {
			log.Info(ctx, "round played",
				logger.Int("round", i),
				logger.String("round_id", res.RoundID),
				logger.Int("fingers", res.Fingers),
				logger.String("winner", res.Winner),
				logger.Duration("settledAt", res.SettledAt))
		}
		report.Rounds = append(report.Rounds, res)
	}

	report.Stats.EndTime = time.Now()
	report.Stats.Duration = report.Stats.EndTime.Sub(report.Stats.StartTime)
	displayFinalStats(ctx, log, &report.Stats)

	if cfg.OutputFile != "" {
		if err := saveReport(ctx, log, cfg.OutputFile, report); err != nil {
			log.Warn(ctx, "failed to save report", logger.Error(err))
		}
	}

	if report.Stats.Failed > 0 {
		return report, fmt.Errorf("%w: %d of %d rounds", ErrVerification, report.Stats.Failed, report.Stats.Rounds)
	}
	return report, nil
}

// saveReport writes the report as indented JSON.
func saveReport(ctx context.Context, log logger.Logger, filename string, report *Report) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	log.Info(ctx, "report saved to file", logger.String("filename", filename))
	return nil
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	log.Info(ctx, "final statistics",
		logger.Int("rounds", stats.Rounds),
		logger.Int("passed", stats.Passed),
		logger.Int("failed", stats.Failed),
		logger.Int("earlyLifts", stats.EarlyLifts),
		logger.Int("lateArrivals", stats.LateArrivals),
		logger.Int("moves", stats.Moves),
		logger.Duration("duration", stats.Duration))
}
