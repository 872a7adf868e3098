package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	service "github.com/okian/choozi/internal/app"
	"github.com/okian/choozi/internal/domain/model"
)

// TouchDependencies defines what the touches handler needs.
type TouchDependencies interface {
	Ingest(ctx context.Context, ev model.TouchEvent) error
}

// TouchesHandler handles touch batches from the renderer. The renderer is
// expected to suppress default platform gestures (scroll, zoom, context
// menu) on the surface it reports touches from.
type TouchesHandler struct {
	deps TouchDependencies
}

// NewTouchesHandler creates a new touches handler.
func NewTouchesHandler(deps TouchDependencies) *TouchesHandler {
	return &TouchesHandler{deps: deps}
}

// touchRequest mirrors the OpenAPI schema for POST /touches.
type touchRequest struct {
	BatchID string        `json:"batch_id"`
	Kind    string        `json:"kind"`
	Touches []model.Touch `json:"touches"`
}

func (t touchRequest) validate() error {
	kind := model.TouchKind(t.Kind)
	switch {
	case strings.TrimSpace(t.BatchID) == "":
		return errors.New("missing batch_id")
	case !kind.Valid():
		return fmt.Errorf("invalid kind %q; must be begin, move, end or cancel", t.Kind)
	case (kind == model.TouchBegin || kind == model.TouchMove) && len(t.Touches) == 0:
		return fmt.Errorf("%s batch needs at least one touch", kind)
	}
	// Touches without an id are left for the session to skip.
	return nil
}

func (t touchRequest) event() model.TouchEvent {
	return model.TouchEvent{BatchID: t.BatchID, Kind: model.TouchKind(t.Kind), Touches: t.Touches}
}

// HandlePostTouches handles POST /touches requests.
func (h *TouchesHandler) HandlePostTouches(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_touches"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req touchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	err := h.deps.Ingest(r.Context(), req.event())
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
	case errors.Is(err, service.ErrDuplicate):
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
	case errors.Is(err, service.ErrInvalidEvent):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
	default:
		writeUnavailable(w, op, err)
	}
}

// writeUnavailable maps a stopped or not yet started service to 503 and
// anything else to 500.
func writeUnavailable(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, service.ErrNotStarted) || errors.Is(err, service.ErrStopped) {
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
		return
	}
	writeError(w, http.StatusInternalServerError, "internal", err)
}
