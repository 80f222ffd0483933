package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/garyjia/travel-support/internal/application/refresh"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// RefreshMessage is what a listing view receives for each recorded request
type RefreshMessage struct {
	Type      string `json:"type"`
	RequestID int64  `json:"request_id"`
	FormKey   string `json:"form_key"`
}

// RefreshStream pushes refresh events to listing views over a WebSocket
type RefreshStream struct {
	hub      *refresh.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewRefreshStream creates a stream fed by hub. allowedOrigins empty accepts any origin.
func NewRefreshStream(hub *refresh.Hub, allowedOrigins []string, logger *zap.Logger) *RefreshStream {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &RefreshStream{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// ServeHTTP upgrades the connection and streams until the client leaves
func (s *RefreshStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	sub := s.hub.Subscribe()
	defer sub.Cancel()
	defer conn.Close()

	done := make(chan struct{})
	go s.readLoop(conn, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case evt, ok := <-sub.C:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			msg := RefreshMessage{Type: "request.recorded", RequestID: evt.RequestID, FormKey: evt.FormKey}
			if err := conn.WriteJSON(msg); err != nil {
				s.logger.Debug("Refresh client gone", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains client frames so pongs and close frames are processed
func (s *RefreshStream) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
