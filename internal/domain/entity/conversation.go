package entity

import "time"

type Channel string

const (
	ChannelInternal Channel = "internal"
	ChannelWhatsApp Channel = "whatsapp"
)

type ConversationStatus string

const (
	ConversationActive ConversationStatus = "active"
	ConversationClosed ConversationStatus = "closed"
)

// Conversation is a support thread between one subject (a user ID for the
// internal channel, an E.164 phone number for WhatsApp) and the admin side.
// At most one active conversation exists per (subject, channel).
type Conversation struct {
	ID              string             `json:"id" firestore:"id"`
	SubjectID       string             `json:"subject_id" firestore:"subjectId"`
	Channel         Channel            `json:"channel" firestore:"channel"`
	AssignedAdminID string             `json:"assigned_admin_id,omitempty" firestore:"assignedAdminId,omitempty"`
	Status          ConversationStatus `json:"status" firestore:"status"`
	LastMessage     string             `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageAt   time.Time          `json:"last_message_at" firestore:"lastMessageAt"`
	UnreadCount     map[string]int     `json:"unread_count" firestore:"unreadCount"` // party ID -> unread messages
	MessageSeq      int64              `json:"-" firestore:"messageSeq"`             // per-conversation append counter
	CreatedAt       time.Time          `json:"created_at" firestore:"createdAt"`
	UpdatedAt       time.Time          `json:"updated_at" firestore:"updatedAt"`
}

func (c *Conversation) IsClosed() bool {
	return c.Status == ConversationClosed
}

// Parties returns the identities that receive this conversation's messages:
// the subject and, once assigned, the admin.
func (c *Conversation) Parties() []string {
	parties := []string{c.SubjectID}
	if c.AssignedAdminID != "" {
		parties = append(parties, c.AssignedAdminID)
	}
	return parties
}
