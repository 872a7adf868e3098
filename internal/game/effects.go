package game

import "context"

// Effects receives fire-and-forget audio and haptic requests. Calls are
// made on the session's control flow and must not block.
type Effects interface {
	PlayRevealSound(ctx context.Context, roundID string)
	HapticPulse(ctx context.Context, roundID string)
}

// NopEffects ignores every request.
type NopEffects struct{}

func (NopEffects) PlayRevealSound(context.Context, string) {}
func (NopEffects) HapticPulse(context.Context, string)     {}
