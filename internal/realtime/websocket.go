// internal/realtime/websocket.go
package realtime

import (
	"github.com/gofiber/websocket/v2"
)

// WebSocketConn wraps websocket.Conn so hub.go does not import websocket.
type WebSocketConn struct {
	Conn *websocket.Conn
}

func NewWebSocketConn(c *websocket.Conn) *WebSocketConn {
	return &WebSocketConn{Conn: c}
}

// WritePump drains client.Send into the connection until the channel closes
// or a write fails.
func (w *WebSocketConn) WritePump(client *Client) error {
	for msg := range client.Send {
		if err := w.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return err
		}
	}
	return w.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ReadPump blocks until the peer disconnects. Incoming frames are ignored.
func (w *WebSocketConn) ReadPump() error {
	for {
		if _, _, err := w.Conn.ReadMessage(); err != nil {
			return err
		}
	}
}
