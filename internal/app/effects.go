package service

import (
	"context"

	"github.com/okian/choozi/internal/domain/model"
	"github.com/okian/choozi/pkg/metrics"
)

// outboxEffects turns the session's effect calls into requests on the
// outbox. It runs on the session loop and never blocks.
type outboxEffects struct {
	s *Service
}

func (e outboxEffects) PlayRevealSound(ctx context.Context, roundID string) {
	e.publish(ctx, model.EffectRevealSound, roundID)
}

func (e outboxEffects) HapticPulse(ctx context.Context, roundID string) {
	if !e.s.hapticsEnabled {
		metrics.RecordEffectDropped(string(model.EffectHaptic), "disabled")
		return
	}
	e.publish(ctx, model.EffectHaptic, roundID)
}

func (e outboxEffects) publish(ctx context.Context, kind model.EffectKind, roundID string) {
	req := model.EffectRequest{Kind: kind, RoundID: roundID, At: e.s.clock.Now()}
	if !e.s.outbox.Enqueue(ctx, req) {
		metrics.RecordEffectDropped(string(kind), "outbox_full")
		return
	}
	metrics.RecordEffectPublished(string(kind))
}
