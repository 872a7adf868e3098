package simulate

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/okian/choozi/internal/domain/model"
	"github.com/okian/choozi/internal/game"
)

// Script timing bounds. Every membership change lands less than the settle
// delay after the previous one, so a round settles exactly once, after
// the last change.
const (
	minArrivalGap   = 50 * time.Millisecond
	maxArrivalGap   = 1500 * time.Millisecond
	lateArrivalMin  = 1000 * time.Millisecond
	lateArrivalSpan = 900 * time.Millisecond
	moveWindow      = 1500 * time.Millisecond
)

type generator struct {
	rng *rand.Rand
	cfg *Config
}

func newGenerator(cfg *Config) *generator {
	return &generator{rng: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)), cfg: cfg}
}

type scripted struct {
	Script
	earlyLift   bool
	lateArrival bool
	moves       int
}

func (g *generator) duration(lo, span time.Duration) time.Duration {
	if span <= 0 {
		return lo
	}
	return lo + time.Duration(g.rng.Int64N(int64(span)))
}

func (g *generator) point(id string) model.Touch {
	return model.Touch{ID: id, X: g.rng.Float64() * g.cfg.Width, Y: g.rng.Float64() * g.cfg.Height}
}

// round builds the script for the round-th round.
func (g *generator) round(round int) scripted {
	var out scripted
	fingers := 1 + g.rng.IntN(max(g.cfg.MaxFingers, 1))

	var at time.Duration
	arrivals := make([]Action, 0, fingers+1)
	for i := range fingers {
		if i > 0 {
			at += g.duration(minArrivalGap, maxArrivalGap-minArrivalGap)
		}
		arrivals = append(arrivals, Action{At: at, Kind: model.TouchBegin, Touch: g.point(fingerID(round, i))})
	}
	lastChange := at
	actions := slices.Clone(arrivals)

	lifted := -1
	if fingers > 1 && g.rng.Float64() < g.cfg.EarlyLiftRate {
		lifted = g.rng.IntN(fingers)
		from := arrivals[lifted].At + time.Millisecond
		liftAt := g.duration(from, arrivals[fingers-1].At+maxArrivalGap-from)
		actions = append(actions, Action{At: liftAt, Kind: model.TouchEnd, Touch: model.Touch{ID: arrivals[lifted].Touch.ID}})
		lastChange = max(lastChange, liftAt)
		out.earlyLift = true
	}

	if g.rng.Float64() < g.cfg.LateArrivalRate {
		late := Action{
			At:    lastChange + g.duration(lateArrivalMin, lateArrivalSpan),
			Kind:  model.TouchBegin,
			Touch: g.point(fingerID(round, fingers)),
		}
		arrivals = append(arrivals, late)
		actions = append(actions, late)
		lastChange = late.At
		out.lateArrival = true
	}

	for i, a := range arrivals {
		if i == lifted {
			continue
		}
		for range g.rng.IntN(max(g.cfg.MaxMoves, 0) + 1) {
			moveAt := g.duration(a.At, lastChange+moveWindow-a.At)
			p := g.point(a.Touch.ID)
			actions = append(actions, Action{At: moveAt, Kind: model.TouchMove, Touch: p})
			out.moves++
		}
	}

	// Stable so a begin stays ahead of a move generated for it at the same instant.
	slices.SortStableFunc(actions, func(a, b Action) int {
		return cmp.Compare(a.At, b.At)
	})
	out.Actions = actions
	return out
}

func fingerID(round, finger int) string {
	return fmt.Sprintf("r%d-f%d", round, finger)
}

// lastMembershipChange returns the offset of the last begin or end.
func lastMembershipChange(s Script) time.Duration {
	var last time.Duration
	for _, a := range s.Actions {
		if a.Kind != model.TouchMove {
			last = max(last, a.At)
		}
	}
	return last
}

// expectedSettle is when the winner should be resolved.
func expectedSettle(s Script) time.Duration {
	return lastMembershipChange(s) + game.SettleDelay
}
