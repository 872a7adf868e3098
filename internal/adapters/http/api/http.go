// Package api implements the local HTTP bridge between the renderer and
// the game session.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/choozi/internal/domain/model"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	// Ingest queues a touch batch for the session.
	Ingest(ctx context.Context, ev model.TouchEvent) error

	Snapshot() model.Snapshot
	SetSoundEnabled(ctx context.Context, on bool) error
	Reset(ctx context.Context) error
	DrainEffects(ctx context.Context, limit int) []model.EffectRequest

	// Subscribe streams snapshots until the returned cancel func is called.
	Subscribe() (<-chan model.Snapshot, func(), error)
}

// Server wires HTTP routes for the renderer bridge.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	touchesHandler *TouchesHandler
	sessionHandler *SessionHandler
	effectsHandler *EffectsHandler
	streamHandler  *StreamHandler
	metricsHandler http.Handler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		touchesHandler: NewTouchesHandler(deps),
		sessionHandler: NewSessionHandler(deps),
		effectsHandler: NewEffectsHandler(deps),
		streamHandler:  NewStreamHandler(deps),
		metricsHandler: NewMetricsHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/touches", MetricsMiddleware(s.touchesHandler.HandlePostTouches, "touches"))
	mux.HandleFunc("/snapshot", MetricsMiddleware(s.sessionHandler.HandleGetSnapshot, "snapshot"))
	mux.HandleFunc("/sound", MetricsMiddleware(s.sessionHandler.HandlePutSound, "sound"))
	mux.HandleFunc("/reset", MetricsMiddleware(s.sessionHandler.HandlePostReset, "reset"))
	mux.HandleFunc("/effects", MetricsMiddleware(s.effectsHandler.HandleGetEffects, "effects"))
	mux.HandleFunc("/ws", MetricsMiddleware(s.streamHandler.HandleStream, "ws"))
	mux.Handle("/metrics", s.metricsHandler)
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
