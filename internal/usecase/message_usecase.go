package usecase

import (
	"context"
	"log"

	"supporthub/internal/domain/entity"
	"supporthub/internal/domain/repository"
	"supporthub/internal/infrastructure/ratelimit"
	"supporthub/internal/infrastructure/realtime"
	"supporthub/pkg/errors"
)

// MessageUseCase is the message store: an append-only ordered log per
// conversation. Persisting always happens before any realtime push, and a
// failed push never surfaces to the writer; polling is the guaranteed path.
type MessageUseCase struct {
	convRepo    repository.ConversationRepository
	msgRepo     repository.MessageRepository
	rtManager   *realtime.Manager
	rateLimiter *ratelimit.RateLimiter
}

func NewMessageUseCase(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository, rtManager *realtime.Manager) *MessageUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &MessageUseCase{
		convRepo:    convRepo,
		msgRepo:     msgRepo,
		rtManager:   rtManager,
		rateLimiter: rateLimiter,
	}
}

type AppendMessageInput struct {
	ConversationID    string
	SenderID          string
	SenderType        entity.SenderType
	Content           string
	Attachment        *entity.Attachment
	ProviderMessageID string
}

// Append validates, persists and then announces a message, with a
// per-sender rate limit for the interactive surface.
func (uc *MessageUseCase) Append(ctx context.Context, input AppendMessageInput) (*entity.Message, error) {
	if input.SenderType != entity.SenderSystem {
		allowed, waitTime := uc.rateLimiter.Allow(input.SenderID, "send_message")
		if !allowed {
			log.Printf("Append Rate Limited: sender %s must wait %v", input.SenderID, waitTime)
			return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message", waitTime)
		}
	}
	return uc.record(ctx, input)
}

// record persists and announces a message without the interactive rate
// limit. Channel ingestion calls it directly: the provider has already
// been acked by the time an inbound message reaches the store, so a
// valid message rejected here would be lost for good. The message and
// the parent conversation's lastMessageAt move in one transaction; a
// dangling message with a stale conversation timestamp would break list
// ordering, so partial state is never written.
func (uc *MessageUseCase) record(ctx context.Context, input AppendMessageInput) (*entity.Message, error) {
	if input.Content == "" && input.Attachment == nil {
		return nil, errors.InvalidMessage("Message needs text content or an attachment")
	}
	if input.Attachment != nil && input.Attachment.URL == "" {
		return nil, errors.InvalidMessage("Attachment upload has not completed")
	}
	if input.SenderID == "" {
		return nil, errors.InvalidMessage("Sender identity is required")
	}

	message := &entity.Message{
		ConversationID:    input.ConversationID,
		SenderID:          input.SenderID,
		SenderType:        input.SenderType,
		Content:           input.Content,
		Attachment:        input.Attachment,
		ProviderMessageID: input.ProviderMessageID,
	}

	if err := uc.msgRepo.Append(ctx, message); err != nil {
		log.Printf("Append Error: conversation %s, sender %s: %v", input.ConversationID, input.SenderID, err)
		return nil, err
	}

	// Push is best-effort and must never block or fail the append; the
	// manager drops frames for slow or absent observers.
	uc.rtManager.PublishMessage(input.ConversationID, message)

	return message, nil
}

// List returns messages in creation order. sinceID makes the read
// incremental so polling clients never re-fetch history. Non-admin readers
// may only read their own conversation.
func (uc *MessageUseCase) List(ctx context.Context, readerID string, readerIsAdmin bool, conversationID, sinceID string, limit int) ([]*entity.Message, error) {
	conversation, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if !readerIsAdmin && conversation.SubjectID != readerID {
		return nil, errors.Forbidden("You are not a party to this conversation", nil)
	}

	return uc.msgRepo.ListByConversation(ctx, conversationID, sinceID, limit)
}

// MarkRead stamps readAt when the opposite party first views the message.
// Re-reads and the sender's own reads are no-ops.
func (uc *MessageUseCase) MarkRead(ctx context.Context, readerID string, readerIsAdmin bool, conversationID, messageID string) error {
	conversation, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}

	if !readerIsAdmin && conversation.SubjectID != readerID {
		return errors.Forbidden("You are not a party to this conversation", nil)
	}

	if err := uc.msgRepo.MarkRead(ctx, conversationID, messageID, readerID); err != nil {
		log.Printf("MarkRead Error: message %s in conversation %s: %v", messageID, conversationID, err)
		return err
	}

	uc.rtManager.PublishReadReceipt(conversationID, messageID, readerID)
	return nil
}
