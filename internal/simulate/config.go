// Package simulate plays scripted rounds against a game session on a
// virtual clock and checks every outcome against an independent model.
package simulate

import (
	"time"

	"github.com/okian/choozi/internal/domain/model"
)

// Config holds configuration for a simulation run.
type Config struct {
	Rounds          int     // Number of rounds to play
	Seed            uint64  // Seed for the script generator
	MaxFingers      int     // Upper bound of fingers per round
	Width           float64 // Viewport width
	Height          float64 // Viewport height
	EarlyLiftRate   float64 // Probability that a finger lifts before the round settles
	LateArrivalRate float64 // Probability of a finger arriving just before the deadline
	MaxMoves        int     // Upper bound of moves per finger
	Sound           bool    // Reveal sound preference
	OutputFile      string  // Optional JSON report path
	Verbose         bool    // Log every round
}

// DefaultConfig returns a small, reproducible run.
func DefaultConfig() *Config {
	return &Config{
		Rounds:          100,
		Seed:            1,
		MaxFingers:      6,
		Width:           390,
		Height:          844,
		EarlyLiftRate:   0.25,
		LateArrivalRate: 0.25,
		MaxMoves:        3,
		Sound:           true,
	}
}

// Action is one scripted touch change at a virtual offset from the round start.
type Action struct {
	At    time.Duration   `json:"at"`
	Kind  model.TouchKind `json:"kind"`
	Touch model.Touch     `json:"touch"`
}

// Script is the generated input of one round.
type Script struct {
	Actions []Action `json:"actions"`
}

// TimelineEntry records when the session entered a step.
type TimelineEntry struct {
	At    time.Duration `json:"at"`
	Phase model.Phase   `json:"phase"`
	Step  string        `json:"step"`
}

// RoundResult is the outcome of one simulated round.
type RoundResult struct {
	Index          int             `json:"index"`
	RoundID        string          `json:"round_id"`
	Fingers        int             `json:"fingers"`
	Script         Script          `json:"script"`
	Timeline       []TimelineEntry `json:"timeline"`
	Winner         string          `json:"winner"`
	ExpectedWinner string          `json:"expected_winner"`
	SettledAt      time.Duration   `json:"settled_at"`
	Sounds         int             `json:"sounds"`
	Haptics        int             `json:"haptics"`
	Problems       []string        `json:"problems,omitempty"`
}

// Stats holds run statistics.
type Stats struct {
	Rounds       int
	Passed       int
	Failed       int
	EarlyLifts   int
	LateArrivals int
	Moves        int
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
}

// Report is everything a run produced.
type Report struct {
	Seed   uint64        `json:"seed"`
	Rounds []RoundResult `json:"rounds"`
	Stats  Stats         `json:"-"`
}
