package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"supporthub/internal/domain/entity"
	"supporthub/internal/usecase"
	"supporthub/pkg/errors"
	"supporthub/pkg/response"
	"supporthub/pkg/utils"
)

type ConversationHandler struct {
	conversationUseCase *usecase.ConversationUseCase
}

func NewConversationHandler(conversationUseCase *usecase.ConversationUseCase) *ConversationHandler {
	return &ConversationHandler{
		conversationUseCase: conversationUseCase,
	}
}

type openConversationRequest struct {
	Channel string `json:"channel" validate:"omitempty,oneof=internal whatsapp"`
}

type assignConversationRequest struct {
	AdminID string `json:"admin_id"`
}

// OpenConversation returns the caller's active support conversation,
// creating one if none exists.
func (h *ConversationHandler) OpenConversation(c echo.Context) error {
	var req openConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	channel := entity.ChannelInternal
	if req.Channel != "" {
		channel = entity.Channel(req.Channel)
	}

	userID := c.Get("uid").(string)

	conversation, err := h.conversationUseCase.Open(c.Request().Context(), userID, channel)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversation)
}

// ListConversations returns active conversations for the admin inbox,
// newest activity first.
func (h *ConversationHandler) ListConversations(c echo.Context) error {
	params := utils.GetPaginationParams(c)

	conversations, total, err := h.conversationUseCase.ListActive(c.Request().Context(), usecase.ListConversationsInput{
		Channel:         entity.Channel(c.QueryParam("channel")),
		AssignedAdminID: c.QueryParam("assigned_admin_id"),
		Limit:           params.PageSize,
		Offset:          params.Offset,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, conversations, total, params.PageSize, params.Offset)
}

func (h *ConversationHandler) GetConversation(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)
	isAdmin, _ := c.Get("isAdmin").(bool)

	conversation, err := h.conversationUseCase.GetByID(c.Request().Context(), conversationID)
	if err != nil {
		return response.Error(c, err)
	}

	if !isAdmin && conversation.SubjectID != userID {
		return response.Error(c, errors.Forbidden("You are not a party to this conversation", nil))
	}

	return response.Success(c, conversation)
}

// AssignConversation claims the conversation for an admin. The first
// claim wins; a later claim by another admin gets a conflict.
func (h *ConversationHandler) AssignConversation(c echo.Context) error {
	conversationID := c.Param("id")
	adminID := c.Get("uid").(string)

	var req assignConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if req.AdminID != "" {
		adminID = req.AdminID
	}

	conversation, err := h.conversationUseCase.AssignAdmin(c.Request().Context(), conversationID, adminID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversation)
}

func (h *ConversationHandler) CloseConversation(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)
	isAdmin, _ := c.Get("isAdmin").(bool)

	if err := h.conversationUseCase.Close(c.Request().Context(), conversationID, userID, isAdmin); err != nil {
		return response.Error(c, err)
	}

	return c.NoContent(http.StatusOK)
}

func (h *ConversationHandler) MarkConversationRead(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)

	if err := h.conversationUseCase.MarkConversationRead(c.Request().Context(), conversationID, userID); err != nil {
		return response.Error(c, err)
	}

	return c.NoContent(http.StatusOK)
}
