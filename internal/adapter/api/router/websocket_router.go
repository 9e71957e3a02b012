package router

import (
	"github.com/labstack/echo/v4"

	"supporthub/internal/adapter/api/handler"
)

// SetupWebSocketRouter wires the realtime endpoint. Authentication happens
// inside the handler because browsers cannot set headers on the upgrade.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}
