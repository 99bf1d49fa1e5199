package handlers

import (
	"net/http"
	"time"

	"pharma-backend/internal/events"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
)

// WebSocketHandler upgrades clients and streams accepted lifecycle
// transitions from the event hub.
type WebSocketHandler struct {
	hub      *events.Hub
	logger   *logrus.Logger
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates the handler.
func NewWebSocketHandler(hub *events.Hub, logger *logrus.Logger) *WebSocketHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &WebSocketHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// HandleWebSocket subscribes the client to the transition stream.
// GET /api/ws
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Error("❌ WebSocket upgrade failed")
		return
	}

	sub := events.NewSubscriber()
	h.hub.Register(sub)

	h.logger.WithField("subscriber_id", sub.ID).Info("📡 WebSocket client connected")

	conn.WriteJSON(map[string]interface{}{
		"type":          "connected",
		"subscriber_id": sub.ID,
		"message":       "Connected to batch transition stream",
		"timestamp":     time.Now(),
	})

	go h.writeLoop(conn, sub)
	h.readLoop(conn, sub)
}

// writeLoop drains the subscriber channel into the socket and keeps the
// connection alive with pings.
func (h *WebSocketHandler) writeLoop(conn *websocket.Conn, sub *events.Subscriber) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case data, ok := <-sub.Send:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop consumes client frames until the connection drops, then
// unregisters the subscriber.
func (h *WebSocketHandler) readLoop(conn *websocket.Conn, sub *events.Subscriber) {
	defer func() {
		h.hub.Unregister(sub)
		conn.Close()
		h.logger.WithField("subscriber_id", sub.ID).Info("📡 WebSocket client disconnected")
	}()

	conn.SetReadLimit(1024)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
