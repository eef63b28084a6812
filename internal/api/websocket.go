// websocket.go - Session event stream over WebSocket
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/envlab/monitor-trainer/backend/internal/session"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Server -> client message types on the event stream.
const (
	MsgTypeConnected = "connected"
	MsgTypeEvent     = "event"
	MsgTypePong      = "pong"
)

// wsPingInterval keeps intermediaries from closing an idle stream.
const wsPingInterval = 30 * time.Second

// WSMessage is the envelope for stream messages.
type WSMessage struct {
	Type      string         `json:"type"`
	Event     *session.Event `json:"event,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// WebSocketHandler streams session state-change events to subscribed
// clients. This is the observer surface of the session engine: the UI
// subscribes here instead of polling.
type WebSocketHandler struct {
	sessions SessionDirectory
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new event stream handler
func NewWebSocketHandler(sessions SessionDirectory) *WebSocketHandler {
	return &WebSocketHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// The trainer runs on a closed classroom network.
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
		},
	}
}

// HandleSessionEvents upgrades the connection and forwards the session's
// events until the client disconnects.
func (wsh *WebSocketHandler) HandleSessionEvents(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}
	if _, ok := wsh.sessions.Get(id); !ok {
		return NewNotFoundError("session", id)
	}

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	events, cancel := wsh.sessions.Hub().Subscribe(id)
	defer cancel()

	fmt.Printf("[WebSocket] Client subscribed to session %s events\n", shortID(id))

	if err := ws.WriteJSON(WSMessage{Type: MsgTypeConnected, Timestamp: time.Now().UnixMilli()}); err != nil {
		return nil
	}

	// Drain client frames so close handshakes are noticed; the stream is
	// one-directional otherwise.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := ws.WriteJSON(WSMessage{Type: MsgTypeEvent, Event: &ev, Timestamp: time.Now().UnixMilli()}); err != nil {
				return nil
			}
		case <-ticker.C:
			if err := ws.WriteJSON(WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()}); err != nil {
				return nil
			}
		case <-done:
			fmt.Printf("[WebSocket] Client left session %s events\n", shortID(id))
			return nil
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
