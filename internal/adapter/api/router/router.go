package router

import (
	"github.com/labstack/echo/v4"

	"supporthub/internal/adapter/api/handler"
	"supporthub/internal/adapter/api/middleware"
)

type Handlers struct {
	Conversation *handler.ConversationHandler
	Message      *handler.MessageHandler
	Webhook      *handler.WebhookHandler
	WebSocket    *handler.WebSocketHandler
	Attachment   *handler.AttachmentHandler
	Health       *handler.HealthHandler
}

func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	SetupHealthRouter(e, h.Health)
	SetupConversationRouter(e, h.Conversation, h.Message, authMiddleware, adminMiddleware)
	SetupAttachmentRouter(e, h.Attachment, authMiddleware)
	SetupWebhookRouter(e, h.Webhook)
	SetupWebSocketRouter(e, h.WebSocket)
}
