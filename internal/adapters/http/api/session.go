package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/choozi/internal/domain/model"
)

// SessionDependencies defines what the session handler needs.
type SessionDependencies interface {
	Snapshot() model.Snapshot
	SetSoundEnabled(ctx context.Context, on bool) error
	Reset(ctx context.Context) error
}

// SessionHandler serves the session state and controls.
type SessionHandler struct {
	deps SessionDependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// HandleGetSnapshot handles GET /snapshot requests.
func (h *SessionHandler) HandleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Snapshot())
}

type soundRequest struct {
	Enabled *bool `json:"enabled"`
}

// HandlePutSound handles PUT /sound requests.
func (h *SessionHandler) HandlePutSound(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_sound"
	if r.Method != http.MethodPut {
		http.NotFound(w, r)
		return
	}
	var req soundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing enabled")))
		return
	}
	if err := h.deps.SetSoundEnabled(r.Context(), *req.Enabled); err != nil {
		writeUnavailable(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePostReset handles POST /reset requests. It returns once the reset
// has been applied.
func (h *SessionHandler) HandlePostReset(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_reset"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.Reset(r.Context()); err != nil {
		writeUnavailable(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
