package websocket

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const clientModule = "EventStreamClient"

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// The stream is push only; peers send nothing but control frames.
	maxInboundBytes = 512

	sendBuffer = 256
)

// Client is one shell connection subscribed to engine events.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Id   string

	// Send carries encoded events; the hub closes it when it drops the client.
	Send chan []byte
}

func newClient(hub *Hub, conn *websocket.Conn, id string) *Client {
	return &Client{Hub: hub, Conn: conn, Id: id, Send: make(chan []byte, sendBuffer)}
}

// serve registers the client and blocks until the peer disconnects.
func (c *Client) serve() {
	c.Hub.register <- c
	go c.pushEvents()
	c.awaitClose()
}

func (c *Client) awaitClose() {
	defer func() {
		c.Hub.unregister <- c
		_ = c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxInboundBytes)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn(clientModule, "Stream closed unexpectedly", map[string]interface{}{
					"client_id": c.Id,
					"error":     err,
				})
			}
			return
		}
	}
}

func (c *Client) pushEvents() {
	keepalive := time.NewTicker(pingPeriod)
	defer func() {
		keepalive.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// One event per frame so the shell can decode each message alone.
			if err := c.Conn.WriteMessage(websocket.TextMessage, event); err != nil {
				c.Hub.logger.Debug(clientModule, "Event write failed", map[string]interface{}{
					"client_id": c.Id,
					"error":     err,
				})
				return
			}
		case <-keepalive.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
