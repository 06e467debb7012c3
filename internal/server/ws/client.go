package ws

import (
	"github.com/gorilla/websocket"
)

const clientBufLen = 256

// Client is one WebSocket consumer of the event feed.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, clientBufLen),
	}
}

// WritePump drains the send channel onto the connection. It exits when the
// hub closes the channel or a write fails.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	// Send channel closed: the hub dropped us or is shutting down.
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
}

// ReadPump discards inbound frames until the peer hangs up, then unregisters
// the client. The feed is one-directional; reading exists to notice the close
// and to service control frames.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
