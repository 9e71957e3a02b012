package router

import (
	"github.com/labstack/echo/v4"

	"supporthub/internal/adapter/api/handler"
)

// SetupWebhookRouter wires the provider callback endpoints. These are
// unauthenticated; the GET handshake carries its own verify token.
func SetupWebhookRouter(e *echo.Echo, webhookHandler *handler.WebhookHandler) {
	e.GET("/v1/webhooks/whatsapp", webhookHandler.VerifyWhatsApp)
	e.POST("/v1/webhooks/whatsapp", webhookHandler.ReceiveWhatsApp)
}
