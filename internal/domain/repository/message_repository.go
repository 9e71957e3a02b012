package repository

import (
	"context"

	"supporthub/internal/domain/entity"
)

type MessageRepository interface {
	// Append persists the message and updates the parent conversation's
	// lastMessageAt, unread counters and sequence in one transaction;
	// either both records change or neither does. It assigns ID, Seq and
	// CreatedAt, and fails with ConversationNotFound or ConversationClosed
	// without mutating anything.
	Append(ctx context.Context, message *entity.Message) error

	// ListByConversation returns messages in creation order (Seq ascending).
	// When sinceID is set, only messages strictly after it are returned;
	// an unknown sinceID falls back to the full page.
	ListByConversation(ctx context.Context, conversationID, sinceID string, limit int) ([]*entity.Message, error)

	GetByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error)

	// MarkRead sets readAt once; repeated calls and reads by the sender
	// are no-ops.
	MarkRead(ctx context.Context, conversationID, messageID, readerID string) error
}
