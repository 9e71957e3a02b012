package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"supporthub/internal/domain/entity"
	"supporthub/internal/domain/repository"
	"supporthub/pkg/errors"
)

// MemoryStore backs both repositories with in-process maps. It is used by
// the test suite and for local development without Firestore credentials.
type MemoryStore struct {
	mu            sync.Mutex
	conversations map[string]*entity.Conversation
	index         map[string]string // channel:subject -> conversation ID
	messages      map[string][]*entity.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*entity.Conversation),
		index:         make(map[string]string),
		messages:      make(map[string][]*entity.Message),
	}
}

func (s *MemoryStore) Conversations() repository.ConversationRepository {
	return &memoryConversationRepository{store: s}
}

func (s *MemoryStore) Messages() repository.MessageRepository {
	return &memoryMessageRepository{store: s}
}

func cloneConversation(c *entity.Conversation) *entity.Conversation {
	out := *c
	out.UnreadCount = make(map[string]int, len(c.UnreadCount))
	for k, v := range c.UnreadCount {
		out.UnreadCount[k] = v
	}
	return &out
}

func cloneMessage(m *entity.Message) *entity.Message {
	out := *m
	if m.Attachment != nil {
		att := *m.Attachment
		out.Attachment = &att
	}
	if m.ReadAt != nil {
		at := *m.ReadAt
		out.ReadAt = &at
	}
	return &out
}

type memoryConversationRepository struct {
	store *MemoryStore
}

func (r *memoryConversationRepository) FindOrCreate(ctx context.Context, subjectID string, channel entity.Channel) (*entity.Conversation, bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fmt.Sprintf("%s:%s", channel, subjectID)
	if id, ok := s.index[key]; ok {
		if conv, ok := s.conversations[id]; ok && !conv.IsClosed() {
			return cloneConversation(conv), false, nil
		}
	}

	now := time.Now()
	conv := &entity.Conversation{
		ID:            uuid.New().String(),
		SubjectID:     subjectID,
		Channel:       channel,
		Status:        entity.ConversationActive,
		LastMessageAt: now,
		UnreadCount:   make(map[string]int),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.conversations[conv.ID] = conv
	s.index[key] = conv.ID

	return cloneConversation(conv), true, nil
}

func (r *memoryConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, errors.ConversationNotFound(nil)
	}
	return cloneConversation(conv), nil
}

func (r *memoryConversationRepository) Assign(ctx context.Context, id, adminID string) (*entity.Conversation, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, errors.ConversationNotFound(nil)
	}
	if conv.IsClosed() {
		return nil, errors.ConversationClosed(id)
	}
	if conv.AssignedAdminID != "" {
		if conv.AssignedAdminID == adminID {
			return cloneConversation(conv), nil
		}
		return nil, errors.AlreadyAssigned(conv.AssignedAdminID)
	}

	conv.AssignedAdminID = adminID
	conv.UpdatedAt = time.Now()
	return cloneConversation(conv), nil
}

func (r *memoryConversationRepository) Close(ctx context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return errors.ConversationNotFound(nil)
	}
	if conv.IsClosed() {
		return nil
	}

	conv.Status = entity.ConversationClosed
	conv.UpdatedAt = time.Now()
	delete(s.index, fmt.Sprintf("%s:%s", conv.Channel, conv.SubjectID))
	return nil
}

func (r *memoryConversationRepository) ListActive(ctx context.Context, filter repository.ConversationFilter, limit, offset int) ([]*entity.Conversation, int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*entity.Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		if conv.IsClosed() {
			continue
		}
		if filter.Channel != "" && conv.Channel != filter.Channel {
			continue
		}
		if filter.AssignedAdminID != "" && conv.AssignedAdminID != filter.AssignedAdminID {
			continue
		}
		all = append(all, cloneConversation(conv))
	}

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

func (r *memoryConversationRepository) MarkRead(ctx context.Context, id, readerID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return errors.ConversationNotFound(nil)
	}
	if conv.UnreadCount == nil {
		conv.UnreadCount = make(map[string]int)
	}
	conv.UnreadCount[readerID] = 0
	conv.UpdatedAt = time.Now()
	return nil
}

type memoryMessageRepository struct {
	store *MemoryStore
}

func (r *memoryMessageRepository) Append(ctx context.Context, message *entity.Message) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[message.ConversationID]
	if !ok {
		return errors.ConversationNotFound(nil)
	}
	if conv.IsClosed() {
		return errors.ConversationClosed(conv.ID)
	}

	now := time.Now()
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.Seq = conv.MessageSeq + 1
	message.CreatedAt = now

	s.messages[conv.ID] = append(s.messages[conv.ID], cloneMessage(message))

	conv.MessageSeq = message.Seq
	conv.LastMessage = message.Preview()
	conv.LastMessageAt = now
	conv.UpdatedAt = now
	if conv.UnreadCount == nil {
		conv.UnreadCount = make(map[string]int)
	}
	for _, party := range conv.Parties() {
		if party != message.SenderID {
			conv.UnreadCount[party]++
		}
	}
	return nil
}

func (r *memoryMessageRepository) ListByConversation(ctx context.Context, conversationID, sinceID string, limit int) ([]*entity.Message, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	sinceSeq := int64(0)
	if sinceID != "" {
		for _, m := range s.messages[conversationID] {
			if m.ID == sinceID {
				sinceSeq = m.Seq
				break
			}
		}
	}

	out := make([]*entity.Message, 0)
	for _, m := range s.messages[conversationID] {
		if m.Seq <= sinceSeq {
			continue
		}
		out = append(out, cloneMessage(m))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *memoryMessageRepository) GetByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.messages[conversationID] {
		if m.ID == messageID {
			return cloneMessage(m), nil
		}
	}
	return nil, errors.NotFound("Message", nil)
}

func (r *memoryMessageRepository) MarkRead(ctx context.Context, conversationID, messageID, readerID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.messages[conversationID] {
		if m.ID == messageID {
			if m.SenderID == readerID || m.ReadAt != nil {
				return nil
			}
			now := time.Now()
			m.ReadAt = &now
			return nil
		}
	}
	return errors.NotFound("Message", nil)
}
