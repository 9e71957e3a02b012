package repository

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"supporthub/internal/domain/entity"
	"supporthub/internal/domain/repository"
	"supporthub/pkg/errors"
)

const (
	conversationsCollection = "conversations"
	indexCollection         = "conversation_index"
)

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

// indexEntry pins the single active conversation per (channel, subject).
// Creating it inside the transaction is the compare-and-set that makes
// FindOrCreate race-free.
type indexEntry struct {
	ConversationID string `firestore:"conversationId"`
}

func indexDocID(subjectID string, channel entity.Channel) string {
	return fmt.Sprintf("%s:%s", channel, subjectID)
}

func (r *firestoreConversationRepository) FindOrCreate(ctx context.Context, subjectID string, channel entity.Channel) (*entity.Conversation, bool, error) {
	var result *entity.Conversation
	var created bool

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		result = nil
		created = false

		idxRef := r.client.Collection(indexCollection).Doc(indexDocID(subjectID, channel))
		idxSnap, err := tx.Get(idxRef)

		if err == nil {
			var idx indexEntry
			if err := idxSnap.DataTo(&idx); err != nil {
				return errors.Internal("Failed to parse conversation index", err)
			}

			convSnap, err := tx.Get(r.client.Collection(conversationsCollection).Doc(idx.ConversationID))
			if err != nil && status.Code(err) != codes.NotFound {
				return errors.Internal("Failed to get conversation", err)
			}
			if err == nil {
				var conversation entity.Conversation
				if err := convSnap.DataTo(&conversation); err != nil {
					return errors.Internal("Failed to parse conversation data", err)
				}
				if !conversation.IsClosed() {
					result = &conversation
					return nil
				}
			}
			// Index pointed at a closed or missing conversation; replace it.
		} else if status.Code(err) != codes.NotFound {
			return errors.Internal("Failed to get conversation index", err)
		}

		now := time.Now()
		conversation := &entity.Conversation{
			ID:            uuid.New().String(),
			SubjectID:     subjectID,
			Channel:       channel,
			Status:        entity.ConversationActive,
			LastMessageAt: now,
			UnreadCount:   make(map[string]int),
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := tx.Set(r.client.Collection(conversationsCollection).Doc(conversation.ID), conversation); err != nil {
			return errors.Internal("Failed to create conversation", err)
		}
		if err := tx.Set(idxRef, indexEntry{ConversationID: conversation.ID}); err != nil {
			return errors.Internal("Failed to create conversation index", err)
		}

		result = conversation
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return result, created, nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.client.Collection(conversationsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.ConversationNotFound(nil)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}

	return &conversation, nil
}

func (r *firestoreConversationRepository) Assign(ctx context.Context, id, adminID string) (*entity.Conversation, error) {
	var result *entity.Conversation

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := r.client.Collection(conversationsCollection).Doc(id)
		snap, err := tx.Get(ref)
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
			return errors.ConversationClosed(id)
		}
		if conversation.AssignedAdminID != "" {
			if conversation.AssignedAdminID == adminID {
				result = &conversation
				return nil
			}
			return errors.AlreadyAssigned(conversation.AssignedAdminID)
		}

		conversation.AssignedAdminID = adminID
		conversation.UpdatedAt = time.Now()
		if err := tx.Set(ref, &conversation); err != nil {
			return errors.Internal("Failed to assign conversation", err)
		}

		result = &conversation
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *firestoreConversationRepository) Close(ctx context.Context, id string) error {
	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := r.client.Collection(conversationsCollection).Doc(id)
		snap, err := tx.Get(ref)
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
			return nil
		}

		conversation.Status = entity.ConversationClosed
		conversation.UpdatedAt = time.Now()
		if err := tx.Set(ref, &conversation); err != nil {
			return errors.Internal("Failed to close conversation", err)
		}

		// Free the index slot so a future first message opens a fresh thread.
		idxRef := r.client.Collection(indexCollection).Doc(indexDocID(conversation.SubjectID, conversation.Channel))
		if err := tx.Delete(idxRef); err != nil {
			return errors.Internal("Failed to release conversation index", err)
		}

		return nil
	})
}

func (r *firestoreConversationRepository) ListActive(ctx context.Context, filter repository.ConversationFilter, limit, offset int) ([]*entity.Conversation, int64, error) {
	query := r.client.Collection(conversationsCollection).Where("status", "==", string(entity.ConversationActive))
	if filter.Channel != "" {
		query = query.Where("channel", "==", string(filter.Channel))
	}
	if filter.AssignedAdminID != "" {
		query = query.Where("assignedAdminId", "==", filter.AssignedAdminID)
	}

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		log.Printf("Firestore error while listing conversations: %v", err)
		return nil, 0, errors.Internal("Failed to list conversations", err)
	}

	all := make([]*entity.Conversation, 0, len(allDocs))
	for _, doc := range allDocs {
		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			log.Printf("Error parsing conversation data: %v", err)
			continue
		}
		all = append(all, &conversation)
	}

	// Order and paginate in memory to avoid a composite index per filter combo.
	sort.Slice(all, func(i, j int) bool {
		if !all[i].LastMessageAt.Equal(all[j].LastMessageAt) {
			return all[i].LastMessageAt.After(all[j].LastMessageAt)
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	start := offset
	if start > len(all) {
		start = len(all)
	}
	end := len(all)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	return all[start:end], total, nil
}

func (r *firestoreConversationRepository) MarkRead(ctx context.Context, id, readerID string) error {
	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := r.client.Collection(conversationsCollection).Doc(id)
		snap, err := tx.Get(ref)
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

		if conversation.UnreadCount == nil {
			conversation.UnreadCount = make(map[string]int)
		}
		if conversation.UnreadCount[readerID] == 0 {
			return nil
		}
		conversation.UnreadCount[readerID] = 0
		conversation.UpdatedAt = time.Now()

		if err := tx.Set(ref, &conversation); err != nil {
			return errors.Internal("Failed to update conversation", err)
		}
		return nil
	})
}
