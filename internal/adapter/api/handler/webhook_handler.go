package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"supporthub/internal/usecase"
	"supporthub/pkg/logger"
)

type WebhookHandler struct {
	whatsappUseCase *usecase.WhatsAppUseCase
	verifyToken     string
}

func NewWebhookHandler(whatsappUseCase *usecase.WhatsAppUseCase, verifyToken string) *WebhookHandler {
	return &WebhookHandler{
		whatsappUseCase: whatsappUseCase,
		verifyToken:     verifyToken,
	}
}

// VerifyWhatsApp answers the provider's subscription handshake by echoing
// the challenge when the verify token matches.
func (h *WebhookHandler) VerifyWhatsApp(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		return c.String(http.StatusOK, challenge)
	}

	return c.NoContent(http.StatusForbidden)
}

// ReceiveWhatsApp ingests inbound events. It always acks with 2xx so the
// provider never retries into an error loop; malformed or duplicate events
// are logged and dropped, not bounced.
func (h *WebhookHandler) ReceiveWhatsApp(c echo.Context) error {
	var payload usecase.InboundWebhookPayload
	if err := c.Bind(&payload); err != nil {
		logger.Warn("WhatsApp webhook: unparseable payload: %v", err)
		return c.String(http.StatusOK, "EVENT_RECEIVED")
	}

	h.whatsappUseCase.HandleInbound(c.Request().Context(), payload)

	return c.String(http.StatusOK, "EVENT_RECEIVED")
}
