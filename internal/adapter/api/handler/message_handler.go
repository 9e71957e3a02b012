package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"supporthub/internal/domain/entity"
	"supporthub/internal/usecase"
	"supporthub/pkg/errors"
	"supporthub/pkg/response"
)

type MessageHandler struct {
	messageUseCase      *usecase.MessageUseCase
	conversationUseCase *usecase.ConversationUseCase
	whatsappUseCase     *usecase.WhatsAppUseCase
}

func NewMessageHandler(messageUseCase *usecase.MessageUseCase, conversationUseCase *usecase.ConversationUseCase, whatsappUseCase *usecase.WhatsAppUseCase) *MessageHandler {
	return &MessageHandler{
		messageUseCase:      messageUseCase,
		conversationUseCase: conversationUseCase,
		whatsappUseCase:     whatsappUseCase,
	}
}

type sendMessageRequest struct {
	Content    string             `json:"content"`
	Attachment *entity.Attachment `json:"attachment,omitempty"`
}

// SendMessage appends a message to a conversation. Admin replies on a
// WhatsApp conversation go out through the provider first; the message is
// recorded only after the provider accepts it.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)
	isAdmin, _ := c.Get("isAdmin").(bool)

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	conversation, err := h.conversationUseCase.GetByID(c.Request().Context(), conversationID)
	if err != nil {
		return response.Error(c, err)
	}

	if !isAdmin && conversation.SubjectID != userID {
		return response.Error(c, errors.Forbidden("You are not a party to this conversation", nil))
	}

	if isAdmin && conversation.Channel == entity.ChannelWhatsApp {
		message, err := h.whatsappUseCase.SendOutbound(c.Request().Context(), conversationID, userID, req.Content, req.Attachment)
		if err != nil {
			return response.Error(c, err)
		}
		return response.Created(c, message)
	}

	senderType := entity.SenderUser
	if isAdmin {
		senderType = entity.SenderAdmin
	}

	message, err := h.messageUseCase.Append(c.Request().Context(), usecase.AppendMessageInput{
		ConversationID: conversationID,
		SenderID:       userID,
		SenderType:     senderType,
		Content:        req.Content,
		Attachment:     req.Attachment,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// ListMessages returns a conversation's messages in creation order.
// since_id makes polling incremental: only messages after it are returned.
func (h *MessageHandler) ListMessages(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)
	isAdmin, _ := c.Get("isAdmin").(bool)

	limit := 50
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	messages, err := h.messageUseCase.List(c.Request().Context(), userID, isAdmin, conversationID, c.QueryParam("since_id"), limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

func (h *MessageHandler) MarkMessageRead(c echo.Context) error {
	conversationID := c.Param("id")
	messageID := c.Param("messageId")
	userID := c.Get("uid").(string)
	isAdmin, _ := c.Get("isAdmin").(bool)

	if err := h.messageUseCase.MarkRead(c.Request().Context(), userID, isAdmin, conversationID, messageID); err != nil {
		return response.Error(c, err)
	}

	return c.NoContent(http.StatusOK)
}
