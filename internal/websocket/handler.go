package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs attaches conn to the hub and blocks until the peer goes away.
func ServeWs(hub *Hub, conn *websocket.Conn) {
	newClient(hub, conn, uuid.NewString()).serve()
}
