package service

import (
	"context"

	"supporthub/internal/domain/entity"
)

// OutboundMedia describes an attachment already uploaded to object storage
// and ready to be forwarded to the external messaging provider.
type OutboundMedia struct {
	Kind entity.AttachmentKind
	URL  string
}

// MessagingProvider is the outbound half of the external channel contract.
// Implementations must honor the context deadline; a timed-out call is a
// failure, never an assumed success.
type MessagingProvider interface {
	// SendText delivers a text message and returns the provider message ID.
	SendText(ctx context.Context, toPhone, body string) (string, error)

	// SendMedia delivers a media message with an optional caption.
	SendMedia(ctx context.Context, toPhone, caption string, media OutboundMedia) (string, error)
}
