package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/choozi/internal/domain/model"
)

const (
	streamWriteWait  = 2 * time.Second
	streamPongWait   = 30 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
	streamReadLimit  = 512
)

// StreamDependencies defines what the stream handler needs.
type StreamDependencies interface {
	Subscribe() (<-chan model.Snapshot, func(), error)
}

// StreamHandler pushes every snapshot to the renderer over a websocket.
type StreamHandler struct {
	deps     StreamDependencies
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a new stream handler. The bridge listens on a
// local address and the webview may load from file://, so every origin is
// accepted.
func NewStreamHandler(deps StreamDependencies) *StreamHandler {
	return &StreamHandler{
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// HandleStream handles GET /ws requests.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	const op = "api.stream"
	updates, cancel, err := h.deps.Subscribe()
	if err != nil {
		writeUnavailable(w, op, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		return
	}
	defer conn.Close()

	// The renderer sends nothing; reading keeps pongs flowing and tells us
	// when the peer goes away.
	gone := make(chan struct{})
	conn.SetReadLimit(streamReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	for {
		select {
		case snap, ok := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session stopped"))
				return
			}
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
