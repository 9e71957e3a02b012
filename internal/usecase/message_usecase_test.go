package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supporthub/internal/domain/entity"
	"supporthub/pkg/errors"
)

func TestAppendUpdatesConversation(t *testing.T) {
	conversations, messages, _ := newConversationFixture()
	ctx := context.Background()

	conv, err := conversations.FindOrCreate(ctx, "user-1", entity.ChannelInternal)
	require.NoError(t, err)

	msg, err := messages.Append(ctx, AppendMessageInput{
		ConversationID: conv.ID,
		SenderID:       "user-1",
		SenderType:     entity.SenderUser,
		Content:        "my transfer is stuck",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, int64(1), msg.Seq)

	got, err := conversations.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.CreatedAt, got.LastMessageAt)
	assert.Equal(t, "my transfer is stuck", got.LastMessage)
}

func TestAppendToClosedConversationFails(t *testing.T) {
	conversations, messages, _ := newConversationFixture()
	ctx := context.Background()

	conv, err := conversations.FindOrCreate(ctx, "user-1", entity.ChannelInternal)
	require.NoError(t, err)
	require.NoError(t, conversations.Close(ctx, conv.ID, "user-1", false))

	_, err = messages.Append(ctx, AppendMessageInput{
		ConversationID: conv.ID,
		SenderID:       "user-1",
		SenderType:     entity.SenderUser,
		Content:        "anyone there?",
	})
	assert.True(t, errors.Is(err, "CONVERSATION_CLOSED"))

	// Nothing was written.
	list, err := messages.List(ctx, "user-1", false, conv.ID, "", 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAppendToUnknownConversationFails(t *testing.T) {
	_, messages, _ := newConversationFixture()

	_, err := messages.Append(context.Background(), AppendMessageInput{
		ConversationID: "missing",
		SenderID:       "user-1",
		SenderType:     entity.SenderUser,
		Content:        "hello",
	})
	assert.True(t, errors.Is(err, "CONVERSATION_NOT_FOUND"))
}

func TestAppendRejectsEmptyMessage(t *testing.T) {
	conversations, messages, _ := newConversationFixture()
	ctx := context.Background()

	conv, err := conversations.FindOrCreate(ctx, "user-1", entity.ChannelInternal)
	require.NoError(t, err)

	_, err = messages.Append(ctx, AppendMessageInput{
		ConversationID: conv.ID,
		SenderID:       "user-1",
		SenderType:     entity.SenderUser,
	})
	assert.True(t, errors.Is(err, "INVALID_MESSAGE"))

	_, err = messages.Append(ctx, AppendMessageInput{
		ConversationID: conv.ID,
		SenderID:       "user-1",
		SenderType:     entity.SenderUser,
		Attachment:     &entity.Attachment{Kind: entity.AttachmentImage},
	})
	assert.True(t, errors.Is(err, "INVALID_MESSAGE"))
}

func TestAppendAcceptsAttachmentOnly(t *testing.T) {
	conversations, messages, _ := newConversationFixture()
	ctx := context.Background()

	conv, err := conversations.FindOrCreate(ctx, "user-1", entity.ChannelInternal)
	require.NoError(t, err)

	msg, err := messages.Append(ctx, AppendMessageInput{
		ConversationID: conv.ID,
		SenderID:       "user-1",
		SenderType:     entity.SenderUser,
		Attachment: &entity.Attachment{
			Kind: entity.AttachmentImage,
			URL:  "https://storage.googleapis.com/bucket/receipt.png",
		},
	})
	require.NoError(t, err)
	assert.True(t, msg.HasAttachment())

	got, err := conversations.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "[image]", got.LastMessage)
}

func TestListSinceIDIsIncremental(t *testing.T) {
	conversations, messages, _ := newConversationFixture()
	ctx := context.Background()

	conv, err := conversations.FindOrCreate(ctx, "user-1", entity.ChannelInternal)
	require.NoError(t, err)

	var ids []string
	for _, content := range []string{"one", "two", "three"} {
		msg, err := messages.Append(ctx, AppendMessageInput{
			ConversationID: conv.ID,
			SenderID:       "user-1",
			SenderType:     entity.SenderUser,
			Content:        content,
		})
		require.NoError(t, err)
		ids = append(ids, msg.ID)
	}

	all, err := messages.List(ctx, "user-1", false, conv.ID, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "one", all[0].Content)
	assert.Equal(t, "three", all[2].Content)

	tail, err := messages.List(ctx, "user-1", false, conv.ID, ids[0], 10)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, "two", tail[0].Content)
	assert.Equal(t, "three", tail[1].Content)

	empty, err := messages.List(ctx, "user-1", false, conv.ID, ids[2], 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListUnknownSinceIDReturnsFullPage(t *testing.T) {
	conversations, messages, _ := newConversationFixture()
	ctx := context.Background()

	conv, err := conversations.FindOrCreate(ctx, "user-1", entity.ChannelInternal)
	require.NoError(t, err)

	_, err = messages.Append(ctx, AppendMessageInput{
		ConversationID: conv.ID,
		SenderID:       "user-1",
		SenderType:     entity.SenderUser,
		Content:        "hello",
	})
	require.NoError(t, err)

	list, err := messages.List(ctx, "user-1", false, conv.ID, "no-such-id", 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListDeniesNonParty(t *testing.T) {
	conversations, messages, _ := newConversationFixture()
	ctx := context.Background()

	conv, err := conversations.FindOrCreate(ctx, "user-1", entity.ChannelInternal)
	require.NoError(t, err)

	_, err = messages.List(ctx, "user-2", false, conv.ID, "", 10)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	// Admins can read any conversation.
	_, err = messages.List(ctx, "admin-1", true, conv.ID, "", 10)
	assert.NoError(t, err)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	conversations, messages, store := newConversationFixture()
	ctx := context.Background()

	conv, err := conversations.FindOrCreate(ctx, "user-1", entity.ChannelInternal)
	require.NoError(t, err)

	msg, err := messages.Append(ctx, AppendMessageInput{
		ConversationID: conv.ID,
		SenderID:       "user-1",
		SenderType:     entity.SenderUser,
		Content:        "hello",
	})
	require.NoError(t, err)

	require.NoError(t, messages.MarkRead(ctx, "admin-1", true, conv.ID, msg.ID))

	got, err := store.Messages().GetByID(ctx, conv.ID, msg.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReadAt)
	firstReadAt := *got.ReadAt

	require.NoError(t, messages.MarkRead(ctx, "admin-1", true, conv.ID, msg.ID))

	again, err := store.Messages().GetByID(ctx, conv.ID, msg.ID)
	require.NoError(t, err)
	require.NotNil(t, again.ReadAt)
	assert.Equal(t, firstReadAt, *again.ReadAt)
}

func TestMarkReadBySenderIsNoOp(t *testing.T) {
	conversations, messages, store := newConversationFixture()
	ctx := context.Background()

	conv, err := conversations.FindOrCreate(ctx, "user-1", entity.ChannelInternal)
	require.NoError(t, err)

	msg, err := messages.Append(ctx, AppendMessageInput{
		ConversationID: conv.ID,
		SenderID:       "user-1",
		SenderType:     entity.SenderUser,
		Content:        "hello",
	})
	require.NoError(t, err)

	require.NoError(t, messages.MarkRead(ctx, "user-1", false, conv.ID, msg.ID))

	got, err := store.Messages().GetByID(ctx, conv.ID, msg.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ReadAt)
}

func TestUnreadCountTracksPerParty(t *testing.T) {
	conversations, messages, _ := newConversationFixture()
	ctx := context.Background()

	conv, err := conversations.FindOrCreate(ctx, "user-1", entity.ChannelInternal)
	require.NoError(t, err)
	_, err = conversations.AssignAdmin(ctx, conv.ID, "admin-1")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = messages.Append(ctx, AppendMessageInput{
			ConversationID: conv.ID,
			SenderID:       "user-1",
			SenderType:     entity.SenderUser,
			Content:        "ping",
		})
		require.NoError(t, err)
	}

	got, err := conversations.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UnreadCount["admin-1"])
	assert.Equal(t, 0, got.UnreadCount["user-1"])

	require.NoError(t, conversations.MarkConversationRead(ctx, conv.ID, "admin-1"))

	got, err = conversations.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.UnreadCount["admin-1"])
}
