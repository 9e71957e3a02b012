package handler

import (
	"net/http"
	"strings"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"supporthub/internal/adapter/api/middleware"
	"supporthub/internal/infrastructure/realtime"
	"supporthub/pkg/errors"
	"supporthub/pkg/logger"
	"supporthub/pkg/response"
)

type WebSocketHandler struct {
	rtManager      *realtime.Manager
	authMiddleware *middleware.AuthMiddleware
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // You should restrict this in production
	},
}

func NewWebSocketHandler(rtManager *realtime.Manager, authMiddleware *middleware.AuthMiddleware) *WebSocketHandler {
	return &WebSocketHandler{
		rtManager:      rtManager,
		authMiddleware: authMiddleware,
	}
}

// HandleWebSocket upgrades the connection and registers the client under
// its verified identity. The role comes from the token's admin claim, so
// a subscriber cannot claim the admin fan-out by asking for it.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		authHeader := c.Request().Header.Get("Authorization")
		if parts := strings.Split(authHeader, " "); len(parts) == 2 && parts[0] == "Bearer" {
			token = parts[1]
		}
	}
	if token == "" {
		return response.Error(c, errors.Unauthorized("Authentication required", nil))
	}

	userID, isAdmin, err := h.authMiddleware.IdentityFromToken(c.Request().Context(), token)
	if err != nil {
		return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade writes its own failure response before returning.
		logger.Error("WebSocket upgrade failed: %v", err)
		return nil
	}

	role := realtime.RoleUser
	if isAdmin {
		role = realtime.RoleAdmin
	}

	client := &realtime.Client{
		UserID: userID,
		Role:   role,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}

	h.rtManager.Register <- client

	go client.ReadPump(h.rtManager)
	go client.WritePump()

	return nil
}
