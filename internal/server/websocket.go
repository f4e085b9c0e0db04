package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWebSocket upgrades to WebSocket and pushes every new report to the client,
// starting with the current one.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	reports := s.hub.Subscribe()
	defer s.hub.Unsubscribe(reports)

	// Nothing published yet: load now, the hub delivers the result.
	if s.hub.Latest() == nil {
		if _, err := s.current(c.Request.Context()); err != nil {
			_ = conn.WriteJSON(gin.H{"error": err.Error()})
			return
		}
	}

	// Read pump: detect client disconnect.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Write pump: send reports as JSON.
	for {
		select {
		case <-gone:
			return
		case rep, ok := <-reports:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(rep); err != nil {
				s.logger.Warn("websocket write failed", zap.Error(err))
				return
			}
		}
	}
}
