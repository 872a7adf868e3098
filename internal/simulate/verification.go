package simulate

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/okian/choozi/internal/domain/model"
	"github.com/okian/choozi/internal/game"
)

// expectedWinner picks the bottom-most finger, then the right-most, then
// the smallest id, by sorting a copy of the fingers still down.
func expectedWinner(down []model.Touch) string {
	if len(down) == 0 {
		return ""
	}
	sorted := slices.Clone(down)
	slices.SortFunc(sorted, func(a, b model.Touch) int {
		switch {
		case a.Y != b.Y:
			if a.Y > b.Y {
				return -1
			}
			return 1
		case a.X != b.X:
			if a.X > b.X {
				return -1
			}
			return 1
		default:
			return strings.Compare(a.ID, b.ID)
		}
	})
	return sorted[0].ID
}

// verifyRound lists every way res differs from the expected round.
func verifyRound(cfg *Config, res RoundResult) []string {
	var problems []string
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if res.RoundID == "" {
		fail("no round id assigned")
	}
	if res.Winner != res.ExpectedWinner {
		fail("winner %q, expected %q", res.Winner, res.ExpectedWinner)
	}

	// Every step must be entered at its cumulative offset from the settle.
	want := make([]TimelineEntry, 0, len(game.Steps)+1)
	at := res.SettledAt
	for _, step := range game.Steps {
		want = append(want, TimelineEntry{At: at, Phase: step.Phase, Step: step.Name})
		at += step.Delay
	}
	want = append(want, TimelineEntry{At: res.SettledAt + game.SequenceDuration(), Phase: model.PhaseWaiting, Step: game.StepWaiting})

	got := stepsAfter(res.Timeline, res.SettledAt)
	if len(got) != len(want) {
		fail("timeline has %d steps after settle, expected %d", len(got), len(want))
	} else {
		for i := range want {
			if got[i] != want[i] {
				fail("step %d: got %s/%s at %s, expected %s/%s at %s",
					i, got[i].Phase, got[i].Step, got[i].At, want[i].Phase, want[i].Step, want[i].At)
			}
		}
	}

	if before := stepsBefore(res.Timeline, res.SettledAt); len(before) > 0 {
		fail("sequence started early at %s", before[0].At)
	}

	wantSounds := 0
	if cfg.Sound {
		wantSounds = 1
	}
	if res.Sounds != wantSounds {
		fail("reveal sound requested %d times, expected %d", res.Sounds, wantSounds)
	}
	if res.Haptics != 1 {
		fail("haptic pulse requested %d times, expected 1", res.Haptics)
	}
	return problems
}

func stepsAfter(timeline []TimelineEntry, from time.Duration) []TimelineEntry {
	var out []TimelineEntry
	for _, e := range timeline {
		if e.At >= from && e.Step != game.StepWaiting || e.At > from {
			out = append(out, e)
		}
	}
	return out
}

func stepsBefore(timeline []TimelineEntry, until time.Duration) []TimelineEntry {
	var out []TimelineEntry
	for _, e := range timeline {
		if e.At < until && e.Step != game.StepWaiting {
			out = append(out, e)
		}
	}
	return out
}
