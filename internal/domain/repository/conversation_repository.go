package repository

import (
	"context"

	"supporthub/internal/domain/entity"
)

type ConversationFilter struct {
	Channel         entity.Channel
	AssignedAdminID string
}

type ConversationRepository interface {
	// FindOrCreate returns the active conversation for the subject on the
	// given channel, creating one atomically if none exists. The bool result
	// reports whether a new conversation was created. Concurrent calls for
	// the same subject never produce duplicates.
	FindOrCreate(ctx context.Context, subjectID string, channel entity.Channel) (*entity.Conversation, bool, error)

	GetByID(ctx context.Context, id string) (*entity.Conversation, error)

	// Assign sets the assigned admin with first-writer-wins semantics.
	// A second admin receives AlreadyAssigned; re-assigning the same admin
	// is a no-op returning the conversation.
	Assign(ctx context.Context, id, adminID string) (*entity.Conversation, error)

	// Close transitions the conversation to closed. Closing an already
	// closed conversation is a no-op.
	Close(ctx context.Context, id string) error

	// ListActive returns active conversations ordered by lastMessageAt
	// descending, createdAt descending on ties.
	ListActive(ctx context.Context, filter ConversationFilter, limit, offset int) ([]*entity.Conversation, int64, error)

	// MarkRead zeroes the reader's unread counter.
	MarkRead(ctx context.Context, id, readerID string) error
}
