package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS origins are enforced on the REST routes only
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// WSMessage is a message sent over the performance stream.
type WSMessage struct {
	Type     string `json:"type"` // "category", "error" or "done"
	Category string `json:"category,omitempty"`
	NAVDate  string `json:"nav_date,omitempty"`
	Data     any    `json:"data,omitempty"`
	Error    string `json:"error,omitempty"`
}

// handlePerformanceStream upgrades to WebSocket and sends one message per
// category as soon as its page is fetched, in report order, then "done".
// A transport error ends the stream with an "error" message.
func (s *Server) handlePerformanceStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go wsReadPump(conn, cancel)

	for _, cat := range s.client.Categories() {
		cp, err := s.client.GetCategoryPerformance(ctx, cat.Code)
		if err != nil {
			_ = wsWrite(conn, WSMessage{Type: "error", Category: cat.Name, Error: err.Error()})
			return
		}
		msg := WSMessage{Type: "category", Category: cat.Name, NAVDate: cp.NAVDate, Data: cp}
		if err := wsWrite(conn, msg); err != nil {
			s.log.Debug().Err(err).Msg("WebSocket client gone")
			return
		}
	}

	if err := wsWrite(conn, WSMessage{Type: "done"}); err != nil {
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// wsReadPump drains client frames and cancels the stream when the peer goes away.
func wsReadPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func wsWrite(conn *websocket.Conn, msg WSMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
