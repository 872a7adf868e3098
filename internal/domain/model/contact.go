// Package model contains domain models passed between layers.
package model

import (
	"math"
	"strings"
)

// Color is a CSS hex colour token understood by the renderer.
type Color string

// Screen colours used by the reveal sequence.
const (
	ColorBlack    Color = "#000000"
	ColorDarkGray Color = "#1a1a1a"
)

// Palette is the fixed cycle of contact colours.
var Palette = [...]Color{
	"#FF6B6B", // red
	"#4ECDC4", // teal
	"#45B7D1", // blue
	"#96CEB4", // mint
	"#FECA57", // yellow
	"#FF9FF3", // pink
	"#54A0FF", // light blue
	"#5F27CD", // purple
	"#00D2D3", // cyan
	"#FF9F43", // orange
}

// PaletteColor returns the colour assigned to the cursor-th contact.
func PaletteColor(cursor int) Color {
	if cursor < 0 {
		cursor = -cursor
	}
	return Palette[cursor%len(Palette)]
}

// Contact is one tracked finger. ID and Color never change after creation.
type Contact struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color Color   `json:"color"`
}

// Touch is a raw contact point as reported by the input boundary.
// Coordinates are viewport-relative with the origin at the top-left.
type Touch struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// HasID reports whether the touch carries a non-blank identifier.
func (t Touch) HasID() bool {
	return strings.TrimSpace(t.ID) != ""
}

// Valid reports whether the touch carries an identifier and finite coordinates.
func (t Touch) Valid() bool {
	if !t.HasID() {
		return false
	}
	return !math.IsNaN(t.X) && !math.IsNaN(t.Y) && !math.IsInf(t.X, 0) && !math.IsInf(t.Y, 0)
}

// TouchKind identifies which platform touch event produced a batch.
type TouchKind string

// Touch event kinds.
const (
	TouchBegin  TouchKind = "begin"
	TouchMove   TouchKind = "move"
	TouchEnd    TouchKind = "end"
	TouchCancel TouchKind = "cancel"
)

// Valid reports whether k is a known kind.
func (k TouchKind) Valid() bool {
	switch k {
	case TouchBegin, TouchMove, TouchEnd, TouchCancel:
		return true
	}
	return false
}

// TouchEvent is one batch delivered by the input boundary. For begin and
// move, Touches lists the changed contacts; for end and cancel it lists the
// contacts that are still down.
type TouchEvent struct {
	BatchID string    `json:"batch_id"`
	Kind    TouchKind `json:"kind"`
	Touches []Touch   `json:"touches"`
}
