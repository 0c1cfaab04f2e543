package handler

import (
	"notehub-engine/internal/pkg/logger"
	internalWS "notehub-engine/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// EventHandler streams engine events to the desktop shell over a websocket.
type EventHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewEventHandler(hub *internalWS.Hub, log logger.ILogger) *EventHandler {
	return &EventHandler{hub: hub, logger: log}
}

func (h *EventHandler) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	g := r.Group("/events")
	g.Use("/ws", auth, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	g.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		internalWS.ServeWs(h.hub, conn)
	}))
}
