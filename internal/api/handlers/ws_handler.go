package handlers

import (
	"log/slog"

	gws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-mailfeed/internal/logger"
	"github.com/welldanyogia/webrana-mailfeed/internal/websocket"
)

// WSHandler upgrades connections into hub clients
type WSHandler struct {
	hub      *websocket.Hub
	upgrader gws.Upgrader
	security *logger.SecurityLogger
	logger   *slog.Logger
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(hub *websocket.Hub, upgrader gws.Upgrader, security *logger.SecurityLogger, log *slog.Logger) *WSHandler {
	return &WSHandler{hub: hub, upgrader: upgrader, security: security, logger: log}
}

// Serve handles GET /ws
func (h *WSHandler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the failure response; a rejected origin
		// is the common cause and worth an audit record
		if h.security != nil {
			h.security.InvalidOrigin(c.RealIP(), c.Request().Header.Get("Origin"))
		}
		return nil
	}

	client := websocket.NewClient(h.hub, conn, h.logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	return nil
}
