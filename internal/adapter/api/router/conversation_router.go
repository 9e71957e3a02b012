package router

import (
	"github.com/labstack/echo/v4"

	"supporthub/internal/adapter/api/handler"
	"supporthub/internal/adapter/api/middleware"
)

// SetupConversationRouter wires the conversation and message endpoints.
func SetupConversationRouter(e *echo.Echo, conversationHandler *handler.ConversationHandler, messageHandler *handler.MessageHandler, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	group := e.Group("/v1/conversations")
	group.Use(authMiddleware.Authenticate)

	// Conversation management
	group.POST("", conversationHandler.OpenConversation)                            // POST /v1/conversations - open or resume own thread
	group.GET("", conversationHandler.ListConversations, adminMiddleware.AdminOnly) // GET /v1/conversations - admin inbox
	group.GET("/:id", conversationHandler.GetConversation)
	group.PUT("/:id/assign", conversationHandler.AssignConversation, adminMiddleware.AdminOnly)
	group.PUT("/:id/close", conversationHandler.CloseConversation)
	group.PUT("/:id/read", conversationHandler.MarkConversationRead)

	// Message management
	group.POST("/:id/messages", messageHandler.SendMessage)
	group.GET("/:id/messages", messageHandler.ListMessages)
	group.PUT("/:id/messages/:messageId/read", messageHandler.MarkMessageRead)
}
