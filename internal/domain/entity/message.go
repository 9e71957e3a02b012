package entity

import "time"

type SenderType string

const (
	SenderUser   SenderType = "user"
	SenderAdmin  SenderType = "admin"
	SenderSystem SenderType = "system"
)

type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentVideo AttachmentKind = "video"
	AttachmentFile  AttachmentKind = "file"
)

// Attachment is a completed upload referenced by a message. URL is always
// resolved before the message is appended; a pending upload never reaches
// the store.
type Attachment struct {
	Kind      AttachmentKind `json:"kind" firestore:"kind"`
	URL       string         `json:"url" firestore:"url"`
	FileName  string         `json:"file_name,omitempty" firestore:"fileName,omitempty"`
	SizeBytes int64          `json:"size_bytes,omitempty" firestore:"sizeBytes,omitempty"`
}

// Message is immutable once created; only ReadAt is set afterwards.
// Ordering within a conversation is by Seq, which the store assigns in the
// append transaction and which agrees with (CreatedAt, ID) order.
type Message struct {
	ID                string      `json:"id" firestore:"id"`
	ConversationID    string      `json:"conversation_id" firestore:"conversationId"`
	SenderID          string      `json:"sender_id" firestore:"senderId"`
	SenderType        SenderType  `json:"sender_type" firestore:"senderType"`
	Content           string      `json:"content" firestore:"content"`
	Attachment        *Attachment `json:"attachment,omitempty" firestore:"attachment,omitempty"`
	ProviderMessageID string      `json:"provider_message_id,omitempty" firestore:"providerMessageId,omitempty"`
	Seq               int64       `json:"seq" firestore:"seq"`
	ReadAt            *time.Time  `json:"read_at,omitempty" firestore:"readAt,omitempty"`
	CreatedAt         time.Time   `json:"created_at" firestore:"createdAt"`
}

func (m *Message) HasAttachment() bool {
	return m.Attachment != nil
}

// Preview is the short text shown on conversation lists.
func (m *Message) Preview() string {
	if m.Content != "" {
		return m.Content
	}
	if m.Attachment != nil {
		switch m.Attachment.Kind {
		case AttachmentImage:
			return "[image]"
		case AttachmentVideo:
			return "[video]"
		default:
			return "[file]"
		}
	}
	return ""
}
