package router

import (
	"github.com/labstack/echo/v4"

	"supporthub/internal/adapter/api/handler"
	"supporthub/internal/adapter/api/middleware"
)

func SetupAttachmentRouter(e *echo.Echo, attachmentHandler *handler.AttachmentHandler, authMiddleware *middleware.AuthMiddleware) {
	group := e.Group("/v1/uploads")
	group.Use(authMiddleware.Authenticate)

	group.POST("", attachmentHandler.Upload)
	group.DELETE("", attachmentHandler.Delete)
}
