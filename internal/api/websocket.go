package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// wsWriteTimeout bounds a single WebSocket write.
	wsWriteTimeout = 10 * time.Second

	// wsPingInterval keeps idle connections alive through proxies.
	wsPingInterval = 30 * time.Second
)

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by CORS middleware
		return true
	},
}

// handleLogsWS upgrades the connection and streams log records to the
// client until it disconnects or the server shuts down.
func (s *Server) handleLogsWS(w http.ResponseWriter, r *http.Request) {
	if s.stream == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeInternal, "log streaming is not enabled")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	clientID := uuid.NewString()
	s.logger.Debug("log stream client connected", "client", clientID)

	records := s.stream.Subscribe()
	defer s.stream.Unsubscribe(records)
	defer conn.Close()

	// Reader drains control frames and unblocks the writer on close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-closed:
			s.logger.Debug("log stream client disconnected", "client", clientID)
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case rec, ok := <-records:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(rec); err != nil {
				s.logger.Debug("log stream write failed", "client", clientID, "error", err)
				return
			}
		}
	}
}
