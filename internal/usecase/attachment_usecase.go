package usecase

import (
	"context"
	"io"
	"log"
	"strings"

	"supporthub/internal/domain/entity"
	"supporthub/internal/domain/service"
	"supporthub/pkg/errors"
)

const attachmentFolder = "chat-attachments"

// AttachmentUseCase completes uploads before any message references them.
// A message only ever carries an attachment whose URL is already resolved.
type AttachmentUseCase struct {
	files       service.FileUploadService
	maxFileSize int64
}

func NewAttachmentUseCase(files service.FileUploadService) *AttachmentUseCase {
	return &AttachmentUseCase{
		files:       files,
		maxFileSize: 10 * 1024 * 1024,
	}
}

func (uc *AttachmentUseCase) MaxFileSize() int64 {
	return uc.maxFileSize
}

// Upload stores the file and returns a fully resolved attachment.
func (uc *AttachmentUseCase) Upload(ctx context.Context, file io.Reader, contentType, fileName string, size int64) (*entity.Attachment, error) {
	if size > uc.maxFileSize {
		return nil, errors.BadRequest("File size exceeds the maximum allowed", nil)
	}

	kind, ok := kindForContentType(contentType)
	if !ok {
		return nil, errors.BadRequest("File type not supported", nil)
	}

	url, err := uc.files.UploadFile(ctx, file, contentType, fileName, attachmentFolder, true)
	if err != nil {
		log.Printf("Upload Error: %s (%s): %v", fileName, contentType, err)
		return nil, errors.Internal("Failed to store attachment", err)
	}

	return &entity.Attachment{
		Kind:      kind,
		URL:       url,
		FileName:  fileName,
		SizeBytes: size,
	}, nil
}

// Delete removes an uploaded attachment that never got referenced.
func (uc *AttachmentUseCase) Delete(ctx context.Context, url string) error {
	if err := uc.files.DeleteFile(ctx, url); err != nil {
		return errors.Internal("Failed to delete attachment", err)
	}
	return nil
}

func kindForContentType(contentType string) (entity.AttachmentKind, bool) {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return entity.AttachmentImage, true
	case strings.HasPrefix(contentType, "video/"):
		return entity.AttachmentVideo, true
	case contentType == "application/pdf", contentType == "text/plain",
		contentType == "application/zip", contentType == "application/octet-stream":
		return entity.AttachmentFile, true
	}
	return "", false
}
