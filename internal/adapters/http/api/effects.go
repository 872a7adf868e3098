package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/choozi/internal/domain/model"
)

const maxEffectsLimit = 100

// EffectsDependencies defines what the effects handler needs.
type EffectsDependencies interface {
	DrainEffects(ctx context.Context, limit int) []model.EffectRequest
}

// EffectsHandler hands queued audio/haptic requests to the renderer.
type EffectsHandler struct {
	deps EffectsDependencies
}

// NewEffectsHandler creates a new effects handler.
func NewEffectsHandler(deps EffectsDependencies) *EffectsHandler {
	return &EffectsHandler{deps: deps}
}

type effectsResponse struct {
	Effects []model.EffectRequest `json:"effects"`
}

// HandleGetEffects handles GET /effects?max=N requests. Returned requests
// are removed from the outbox.
func (h *EffectsHandler) HandleGetEffects(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_effects"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit := maxEffectsLimit
	if raw := r.URL.Query().Get("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxEffectsLimit {
			writeError(w, http.StatusBadRequest, "bad_request",
				WrapKind(op, ErrBadRequest, fmt.Errorf("max must be between 1 and %d", maxEffectsLimit)))
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, effectsResponse{Effects: h.deps.DrainEffects(r.Context(), limit)})
}
