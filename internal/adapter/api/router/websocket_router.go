package router

import (
	"github.com/labstack/echo/v4"

	"portfoliochat/internal/adapter/api/handler"
)

// SetupWebSocketRouter sets up the live subscription endpoint. It
// authenticates inside the handler because browsers cannot set headers on a
// WebSocket handshake.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}
