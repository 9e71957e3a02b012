package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"supporthub/internal/usecase"
	"supporthub/pkg/errors"
	"supporthub/pkg/logger"
	"supporthub/pkg/response"
)

type AttachmentHandler struct {
	attachmentUseCase *usecase.AttachmentUseCase
}

func NewAttachmentHandler(attachmentUseCase *usecase.AttachmentUseCase) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentUseCase: attachmentUseCase,
	}
}

// Upload stores a file and returns the attachment descriptor the client
// includes when sending the message that references it.
func (h *AttachmentHandler) Upload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		logger.Error("Error getting file from form: %v", err)
		return response.Error(c, errors.BadRequest("Missing or invalid file", err))
	}

	logger.Debug("Received file: %s, size: %d bytes, type: %s", file.Filename, file.Size, file.Header.Get("Content-Type"))

	if file.Size > h.attachmentUseCase.MaxFileSize() {
		maxMB := h.attachmentUseCase.MaxFileSize() / (1024 * 1024)
		return response.Error(c, errors.BadRequest(fmt.Sprintf("File size exceeds maximum allowed (%dMB)", maxMB), nil))
	}

	src, err := file.Open()
	if err != nil {
		logger.Error("Error opening file: %v", err)
		return response.Error(c, errors.Internal("Unable to read file", err))
	}
	defer src.Close()

	attachment, err := h.attachmentUseCase.Upload(c.Request().Context(), src, file.Header.Get("Content-Type"), file.Filename, file.Size)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, attachment)
}

type deleteAttachmentRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// Delete removes an uploaded file that was never referenced by a message,
// so abandoned uploads don't accumulate in the bucket.
func (h *AttachmentHandler) Delete(c echo.Context) error {
	var req deleteAttachmentRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.attachmentUseCase.Delete(c.Request().Context(), req.URL); err != nil {
		logger.Error("Error deleting upload %s: %v", req.URL, err)
		return response.Error(c, err)
	}

	return c.NoContent(http.StatusOK)
}
