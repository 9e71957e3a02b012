package usecase

import (
	"context"
	"log"

	"supporthub/internal/domain/entity"
	"supporthub/internal/domain/service"
	"supporthub/pkg/errors"
)

// IdempotencyStore remembers provider message IDs that were already applied.
// Forget releases a key claimed by FirstSeen so a provider retry of an event
// whose append failed is not mistaken for a duplicate.
type IdempotencyStore interface {
	FirstSeen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

// WhatsAppUseCase bridges the external provider to the internal model. It
// never touches storage directly: inbound events and outbound sends both go
// through the conversation registry and the message store.
type WhatsAppUseCase struct {
	conversations *ConversationUseCase
	messages      *MessageUseCase
	provider      service.MessagingProvider
	idempotency   IdempotencyStore
}

func NewWhatsAppUseCase(conversations *ConversationUseCase, messages *MessageUseCase, provider service.MessagingProvider, idempotency IdempotencyStore) *WhatsAppUseCase {
	return &WhatsAppUseCase{
		conversations: conversations,
		messages:      messages,
		provider:      provider,
		idempotency:   idempotency,
	}
}

// InboundWebhookPayload mirrors the Cloud API webhook envelope, reduced to
// the fields this service consumes.
type InboundWebhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []InboundMessage `json:"messages"`
				Statuses []struct {
					ID     string `json:"id"`
					Status string `json:"status"`
				} `json:"statuses"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type InboundMessage struct {
	From string `json:"from"`
	ID   string `json:"id"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
	Image    *InboundMedia `json:"image"`
	Video    *InboundMedia `json:"video"`
	Document *InboundMedia `json:"document"`
}

type InboundMedia struct {
	Link     string `json:"link"`
	Caption  string `json:"caption"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
}

// HandleInbound applies every message event in the payload. Malformed and
// duplicate events are discarded, never errors: the provider retries on
// non-2xx, and retrying cannot fix either case.
func (uc *WhatsAppUseCase) HandleInbound(ctx context.Context, payload InboundWebhookPayload) {
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if err := uc.applyInboundMessage(ctx, msg); err != nil {
					log.Printf("HandleInbound: event %s not applied: %v", msg.ID, err)
				}
			}
		}
	}
}

func (uc *WhatsAppUseCase) applyInboundMessage(ctx context.Context, msg InboundMessage) error {
	if msg.From == "" || msg.ID == "" {
		log.Printf("HandleInbound: discarding malformed event (from=%q id=%q)", msg.From, msg.ID)
		return nil
	}

	idempotencyKey := "wa:" + msg.ID
	claimed := false
	first, err := uc.idempotency.FirstSeen(ctx, idempotencyKey)
	if err != nil {
		// Prefer a duplicate over a lost message if the store is unreachable.
		log.Printf("HandleInbound Warning: idempotency check failed for %s, proceeding: %v", msg.ID, err)
	} else if !first {
		return errors.DuplicateWebhookEvent(msg.ID)
	} else {
		claimed = true
	}

	conversation, err := uc.conversations.FindOrCreate(ctx, msg.From, entity.ChannelWhatsApp)
	if err != nil {
		uc.releaseClaim(ctx, claimed, msg.ID)
		return err
	}

	content, attachment := normalizeInbound(msg)
	if content == "" && attachment == nil {
		log.Printf("HandleInbound: discarding unsupported %q event %s", msg.Type, msg.ID)
		return nil
	}

	// record bypasses the interactive rate limit: the event is already
	// acked, so rejecting it here would lose the message.
	_, err = uc.messages.record(ctx, AppendMessageInput{
		ConversationID:    conversation.ID,
		SenderID:          msg.From,
		SenderType:        entity.SenderUser,
		Content:           content,
		Attachment:        attachment,
		ProviderMessageID: msg.ID,
	})
	if err != nil {
		uc.releaseClaim(ctx, claimed, msg.ID)
	}
	return err
}

// releaseClaim returns an idempotency key after a failed apply so the
// provider's retry of the same event can land.
func (uc *WhatsAppUseCase) releaseClaim(ctx context.Context, claimed bool, providerMessageID string) {
	if !claimed {
		return
	}
	if err := uc.idempotency.Forget(ctx, "wa:"+providerMessageID); err != nil {
		log.Printf("HandleInbound Warning: could not release idempotency key for %s: %v", providerMessageID, err)
	}
}

func normalizeInbound(msg InboundMessage) (string, *entity.Attachment) {
	switch {
	case msg.Text != nil:
		return msg.Text.Body, nil
	case msg.Image != nil && msg.Image.Link != "":
		return msg.Image.Caption, &entity.Attachment{Kind: entity.AttachmentImage, URL: msg.Image.Link}
	case msg.Video != nil && msg.Video.Link != "":
		return msg.Video.Caption, &entity.Attachment{Kind: entity.AttachmentVideo, URL: msg.Video.Link}
	case msg.Document != nil && msg.Document.Link != "":
		return msg.Document.Caption, &entity.Attachment{
			Kind:     entity.AttachmentFile,
			URL:      msg.Document.Link,
			FileName: msg.Document.Filename,
		}
	}
	return "", nil
}

// SendOutbound delivers an admin reply through the provider and records it.
// The provider call comes first: on failure or timeout nothing is persisted
// and the caller sees ProviderSendFailure, so an unsent message can never
// masquerade as sent.
func (uc *WhatsAppUseCase) SendOutbound(ctx context.Context, conversationID, adminID, content string, attachment *entity.Attachment) (*entity.Message, error) {
	conversation, err := uc.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conversation.Channel != entity.ChannelWhatsApp {
		return nil, errors.BadRequest("Conversation is not on the WhatsApp channel", nil)
	}
	if conversation.IsClosed() {
		return nil, errors.ConversationClosed(conversationID)
	}
	if content == "" && attachment == nil {
		return nil, errors.InvalidMessage("Message needs text content or an attachment")
	}
	if attachment != nil && attachment.URL == "" {
		return nil, errors.InvalidMessage("Attachment upload has not completed")
	}

	// Rate limit before the provider call. Limiting after would leave a
	// delivered message with no record of it.
	allowed, waitTime := uc.messages.rateLimiter.Allow(adminID, "send_message")
	if !allowed {
		log.Printf("SendOutbound Rate Limited: admin %s must wait %v", adminID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message", waitTime)
	}

	var providerMessageID string
	if attachment != nil {
		providerMessageID, err = uc.provider.SendMedia(ctx, conversation.SubjectID, content, service.OutboundMedia{
			Kind: attachment.Kind,
			URL:  attachment.URL,
		})
	} else {
		providerMessageID, err = uc.provider.SendText(ctx, conversation.SubjectID, content)
	}
	if err != nil {
		log.Printf("SendOutbound Error: provider rejected send to %s: %v", conversation.SubjectID, err)
		return nil, errors.ProviderSendFailure("Failed to deliver message to WhatsApp", err)
	}

	return uc.messages.record(ctx, AppendMessageInput{
		ConversationID:    conversationID,
		SenderID:          adminID,
		SenderType:        entity.SenderAdmin,
		Content:           content,
		Attachment:        attachment,
		ProviderMessageID: providerMessageID,
	})
}
