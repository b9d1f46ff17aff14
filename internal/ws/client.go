package ws

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second

	sendBuffer = 256
)

// Client is one WebSocket watcher of a single trip.
type Client struct {
	TripID string

	conn *websocket.Conn
	send chan []byte
}

// NewClient wraps an upgraded connection watching the given trip.
func NewClient(tripID string, conn *websocket.Conn) *Client {
	return &Client{
		TripID: tripID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}
}

// Run pumps messages until the connection drops or the hub removes the
// client. The caller registers the client with the hub first; Run blocks
// on the upgraded connection's goroutine.
func (c *Client) Run(hub *Hub) {
	defer func() {
		hub.Remove(c)
		_ = c.conn.Close()
	}()

	go c.readPump(hub)
	c.writePump()
}

// readPump discards inbound frames; watchers are read-only. Its real job
// is noticing the peer going away and answering pings.
func (c *Client) readPump(hub *Hub) {
	defer hub.Remove(c)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
