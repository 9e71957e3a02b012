package usecase

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supporthub/internal/domain/entity"
	"supporthub/pkg/errors"
)

type fakeFileService struct {
	uploads int
	deleted []string
}

func (f *fakeFileService) UploadFile(ctx context.Context, file io.Reader, fileType, fileName, folder string, isPublic bool) (string, error) {
	f.uploads++
	return "https://storage.googleapis.com/bucket/" + folder + "/" + fileName, nil
}

func (f *fakeFileService) DeleteFile(ctx context.Context, fileURL string) error {
	f.deleted = append(f.deleted, fileURL)
	return nil
}

func (f *fakeFileService) Close() error { return nil }

func TestUploadResolvesAttachmentKind(t *testing.T) {
	files := &fakeFileService{}
	uc := NewAttachmentUseCase(files)
	ctx := context.Background()

	cases := []struct {
		contentType string
		want        entity.AttachmentKind
	}{
		{"image/png", entity.AttachmentImage},
		{"image/jpeg", entity.AttachmentImage},
		{"video/mp4", entity.AttachmentVideo},
		{"application/pdf", entity.AttachmentFile},
	}

	for _, tc := range cases {
		attachment, err := uc.Upload(ctx, strings.NewReader("data"), tc.contentType, "f", 4)
		require.NoError(t, err, tc.contentType)
		assert.Equal(t, tc.want, attachment.Kind, tc.contentType)
		assert.NotEmpty(t, attachment.URL)
	}

	assert.Equal(t, len(cases), files.uploads)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	uc := NewAttachmentUseCase(&fakeFileService{})

	_, err := uc.Upload(context.Background(), strings.NewReader("data"), "application/x-msdownload", "evil.exe", 4)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	uc := NewAttachmentUseCase(&fakeFileService{})

	_, err := uc.Upload(context.Background(), strings.NewReader("data"), "image/png", "big.png", uc.MaxFileSize()+1)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestDeleteRemovesStoredObject(t *testing.T) {
	files := &fakeFileService{}
	uc := NewAttachmentUseCase(files)

	url := "https://storage.googleapis.com/bucket/public/chat-attachments/orphan.png"
	require.NoError(t, uc.Delete(context.Background(), url))
	assert.Equal(t, []string{url}, files.deleted)
}
