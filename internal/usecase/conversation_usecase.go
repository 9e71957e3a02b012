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

// ConversationUseCase is the conversation registry: it owns find-or-create,
// assignment and lifecycle. All conversation mutation flows through here.
type ConversationUseCase struct {
	convRepo    repository.ConversationRepository
	rtManager   *realtime.Manager
	rateLimiter *ratelimit.RateLimiter
}

func NewConversationUseCase(convRepo repository.ConversationRepository, rtManager *realtime.Manager) *ConversationUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &ConversationUseCase{
		convRepo:    convRepo,
		rtManager:   rtManager,
		rateLimiter: rateLimiter,
	}
}

type ListConversationsInput struct {
	Channel         entity.Channel
	AssignedAdminID string
	Limit           int
	Offset          int
}

// FindOrCreate returns the subject's active conversation on the channel,
// creating one if needed. Calling it twice with the same arguments returns
// the same conversation.
func (uc *ConversationUseCase) FindOrCreate(ctx context.Context, subjectID string, channel entity.Channel) (*entity.Conversation, error) {
	if subjectID == "" {
		return nil, errors.BadRequest("Subject ID is required", nil)
	}
	if channel != entity.ChannelInternal && channel != entity.ChannelWhatsApp {
		return nil, errors.BadRequest("Unknown channel", nil)
	}

	conversation, created, err := uc.convRepo.FindOrCreate(ctx, subjectID, channel)
	if err != nil {
		log.Printf("FindOrCreate Error: subject %s on %s: %v", subjectID, channel, err)
		return nil, err
	}

	if created {
		log.Printf("FindOrCreate: opened conversation %s for subject %s on %s", conversation.ID, subjectID, channel)
		// Best-effort push; admins not connected pick it up on their next poll.
		uc.rtManager.PublishConversation(conversation)
	}

	return conversation, nil
}

// Open is FindOrCreate with a per-subject rate limit, used by the HTTP
// surface where the subject drives creation directly.
func (uc *ConversationUseCase) Open(ctx context.Context, subjectID string, channel entity.Channel) (*entity.Conversation, error) {
	allowed, waitTime := uc.rateLimiter.Allow(subjectID, "open_conversation")
	if !allowed {
		log.Printf("Open Rate Limited: subject %s must wait %v", subjectID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before opening another conversation", waitTime)
	}
	return uc.FindOrCreate(ctx, subjectID, channel)
}

func (uc *ConversationUseCase) GetByID(ctx context.Context, conversationID string) (*entity.Conversation, error) {
	return uc.convRepo.GetByID(ctx, conversationID)
}

// AssignAdmin claims the conversation for an admin. First writer wins: once
// assigned, other admins receive AlreadyAssigned and nobody can steal it.
func (uc *ConversationUseCase) AssignAdmin(ctx context.Context, conversationID, adminID string) (*entity.Conversation, error) {
	if adminID == "" {
		return nil, errors.BadRequest("Admin ID is required", nil)
	}

	conversation, err := uc.convRepo.Assign(ctx, conversationID, adminID)
	if err != nil {
		if errors.Is(err, "ALREADY_ASSIGNED") {
			log.Printf("AssignAdmin: conversation %s already claimed, admin %s lost the race", conversationID, adminID)
		} else {
			log.Printf("AssignAdmin Error: conversation %s, admin %s: %v", conversationID, adminID, err)
		}
		return nil, err
	}

	return conversation, nil
}

// Close transitions the conversation to closed. Idempotent: closing a closed
// conversation succeeds without changing anything. There is no way back out
// of closed; a new first message opens a fresh conversation.
func (uc *ConversationUseCase) Close(ctx context.Context, conversationID, actorID string, actorIsAdmin bool) error {
	conversation, err := uc.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}

	if !actorIsAdmin && conversation.SubjectID != actorID {
		return errors.Forbidden("Only the conversation subject or an admin can close it", nil)
	}

	if err := uc.convRepo.Close(ctx, conversationID); err != nil {
		log.Printf("Close Error: conversation %s: %v", conversationID, err)
		return err
	}

	return nil
}

// ListActive returns active conversations, most recently active first.
func (uc *ConversationUseCase) ListActive(ctx context.Context, input ListConversationsInput) ([]*entity.Conversation, int64, error) {
	filter := repository.ConversationFilter{
		Channel:         input.Channel,
		AssignedAdminID: input.AssignedAdminID,
	}

	conversations, total, err := uc.convRepo.ListActive(ctx, filter, input.Limit, input.Offset)
	if err != nil {
		log.Printf("ListActive Error: %v", err)
		return nil, 0, err
	}

	return conversations, total, nil
}

// MarkConversationRead zeroes the reader's unread counter.
func (uc *ConversationUseCase) MarkConversationRead(ctx context.Context, conversationID, readerID string) error {
	if _, err := uc.convRepo.GetByID(ctx, conversationID); err != nil {
		return err
	}
	return uc.convRepo.MarkRead(ctx, conversationID, readerID)
}
