package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"supporthub/internal/domain/entity"
	"supporthub/internal/domain/repository"
	"supporthub/pkg/errors"
)

const messagesCollection = "messages"

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) messagesOf(conversationID string) *firestore.CollectionRef {
	return r.client.Collection(conversationsCollection).Doc(conversationID).Collection(messagesCollection)
}

// Append writes the message and bumps the parent conversation in one
// transaction, so lastMessageAt never drifts from the newest message.
func (r *firestoreMessageRepository) Append(ctx context.Context, message *entity.Message) error {
	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		convRef := r.client.Collection(conversationsCollection).Doc(message.ConversationID)
		snap, err := tx.Get(convRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.ConversationNotFound(nil)
			}
			return errors.Internal("Failed to get conversation", err)
		}

		var conversation entity.Conversation
		if err := snap.DataTo(&conversation); err != nil {
			return errors.Internal("Failed to parse conversation data", err)
		}
		if conversation.IsClosed() {
			return errors.ConversationClosed(conversation.ID)
		}

		now := time.Now()
		if message.ID == "" {
			message.ID = uuid.New().String()
		}
		message.Seq = conversation.MessageSeq + 1
		message.CreatedAt = now

		if err := tx.Set(r.messagesOf(conversation.ID).Doc(message.ID), message); err != nil {
			return errors.Internal("Failed to store message", err)
		}

		conversation.MessageSeq = message.Seq
		conversation.LastMessage = message.Preview()
		conversation.LastMessageAt = now
		conversation.UpdatedAt = now
		if conversation.UnreadCount == nil {
			conversation.UnreadCount = make(map[string]int)
		}
		for _, party := range conversation.Parties() {
			if party != message.SenderID {
				conversation.UnreadCount[party]++
			}
		}

		if err := tx.Set(convRef, &conversation); err != nil {
			return errors.Internal("Failed to update conversation", err)
		}
		return nil
	})
}

func (r *firestoreMessageRepository) ListByConversation(ctx context.Context, conversationID, sinceID string, limit int) ([]*entity.Message, error) {
	sinceSeq := int64(0)
	if sinceID != "" {
		since, err := r.GetByID(ctx, conversationID, sinceID)
		if err == nil {
			sinceSeq = since.Seq
		} else if !errors.Is(err, "NOT_FOUND") {
			return nil, err
		}
		// Unknown sinceID falls through to a full page.
	}

	query := r.messagesOf(conversationID).Where("seq", ">", sinceSeq).OrderBy("seq", firestore.Asc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to list messages", err)
	}

	messages := make([]*entity.Message, 0, len(docs))
	for _, doc := range docs {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, errors.Internal("Failed to parse message data", err)
		}
		messages = append(messages, &message)
	}

	return messages, nil
}

func (r *firestoreMessageRepository) GetByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error) {
	doc, err := r.messagesOf(conversationID).Doc(messageID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", nil)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}

	return &message, nil
}

func (r *firestoreMessageRepository) MarkRead(ctx context.Context, conversationID, messageID, readerID string) error {
	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := r.messagesOf(conversationID).Doc(messageID)
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Message", nil)
			}
			return errors.Internal("Failed to get message", err)
		}

		var message entity.Message
		if err := snap.DataTo(&message); err != nil {
			return errors.Internal("Failed to parse message data", err)
		}

		// Reading your own message, or one already read, is a no-op.
		if message.SenderID == readerID || message.ReadAt != nil {
			return nil
		}

		now := time.Now()
		message.ReadAt = &now
		if err := tx.Set(ref, &message); err != nil {
			return errors.Internal("Failed to update message", err)
		}
		return nil
	})
}
