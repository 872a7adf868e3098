package model

import "time"

// Circle is one circle the renderer should draw.
type Circle struct {
	ID         string  `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Color      Color   `json:"color"`
	Emphasized bool    `json:"emphasized"`
}

// Flags carries the boolean parts of the visual and input state.
type Flags struct {
	TouchAccepting bool `json:"touch_accepting"`
	SoundEnabled   bool `json:"sound_enabled"`
	RevealVisible  bool `json:"reveal_visible"`
	OnlyWinner     bool `json:"only_winner"`
	WinnerHidden   bool `json:"winner_hidden"`
}

// Snapshot is a read-only copy of the session state. Step names the
// internal sequencer step, which differs from Phase during hold delays.
type Snapshot struct {
	Phase         Phase     `json:"phase"`
	Step          string    `json:"step"`
	RoundID       string    `json:"round_id,omitempty"`
	ScreenColor   Color     `json:"screen_color"`
	Contacts      []Contact `json:"contacts"`
	Circles       []Circle  `json:"circles"`
	Winner        *Contact  `json:"winner,omitempty"`
	PaletteCursor int       `json:"palette_cursor"`
	Flags         Flags     `json:"flags"`
}

// EffectKind names a fire-and-forget audio or haptic request.
type EffectKind string

// Effect kinds.
const (
	EffectRevealSound EffectKind = "reveal-sound"
	EffectHaptic      EffectKind = "haptic-pulse"
)

// EffectRequest is queued for the renderer to play.
type EffectRequest struct {
	Kind    EffectKind `json:"kind"`
	RoundID string     `json:"round_id"`
	At      time.Time  `json:"at"`
}
