package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supporthub/internal/adapter/repository"
	"supporthub/internal/domain/entity"
	"supporthub/internal/infrastructure/realtime"
	"supporthub/pkg/errors"
)

func newConversationFixture() (*ConversationUseCase, *MessageUseCase, *repository.MemoryStore) {
	store := repository.NewMemoryStore()
	manager := realtime.NewManager()
	conversations := NewConversationUseCase(store.Conversations(), manager)
	messages := NewMessageUseCase(store.Conversations(), store.Messages(), manager)
	return conversations, messages, store
}

func TestFindOrCreateIsIdempotent(t *testing.T) {
	conversations, _, _ := newConversationFixture()
	ctx := context.Background()

	first, err := conversations.FindOrCreate(ctx, "user-1", entity.ChannelInternal)
	require.NoError(t, err)

	second, err := conversations.FindOrCreate(ctx, "user-1", entity.ChannelInternal)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, entity.ConversationActive, second.Status)
}

func TestFindOrCreateSeparatesChannels(t *testing.T) {
	conversations, _, _ := newConversationFixture()
	ctx := context.Background()

	internal, err := conversations.FindOrCreate(ctx, "user-1", entity.ChannelInternal)
	require.NoError(t, err)

	wa, err := conversations.FindOrCreate(ctx, "user-1", entity.ChannelWhatsApp)
	require.NoError(t, err)

	assert.NotEqual(t, internal.ID, wa.ID)
}

func TestFindOrCreateRejectsBadInput(t *testing.T) {
	conversations, _, _ := newConversationFixture()
	ctx := context.Background()

	_, err := conversations.FindOrCreate(ctx, "", entity.ChannelInternal)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	_, err = conversations.FindOrCreate(ctx, "user-1", entity.Channel("sms"))
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestConcurrentFindOrCreateProducesOneConversation(t *testing.T) {
	conversations, _, _ := newConversationFixture()
	ctx := context.Background()

	const workers = 16
	ids := make([]string, workers)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv, err := conversations.FindOrCreate(ctx, "user-1", entity.ChannelInternal)
			require.NoError(t, err)
			ids[i] = conv.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestAssignFirstWriterWins(t *testing.T) {
	conversations, _, _ := newConversationFixture()
	ctx := context.Background()

	conv, err := conversations.FindOrCreate(ctx, "user-1", entity.ChannelInternal)
	require.NoError(t, err)

	const admins = 8
	var wg sync.WaitGroup
	winners := make(chan string, admins)

	for i := 0; i < admins; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			adminID := string(rune('a' + i))
			if _, err := conversations.AssignAdmin(ctx, conv.ID, "admin-"+adminID); err == nil {
				winners <- "admin-" + adminID
			} else {
				assert.True(t, errors.Is(err, "ALREADY_ASSIGNED"))
			}
		}(i)
	}
	wg.Wait()
	close(winners)

	var winner string
	count := 0
	for w := range winners {
		winner = w
		count++
	}
	require.Equal(t, 1, count)

	got, err := conversations.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, winner, got.AssignedAdminID)
}

func TestAssignSameAdminTwiceIsNoOp(t *testing.T) {
	conversations, _, _ := newConversationFixture()
	ctx := context.Background()

	conv, err := conversations.FindOrCreate(ctx, "user-1", entity.ChannelInternal)
	require.NoError(t, err)

	_, err = conversations.AssignAdmin(ctx, conv.ID, "admin-1")
	require.NoError(t, err)

	again, err := conversations.AssignAdmin(ctx, conv.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "admin-1", again.AssignedAdminID)
}

func TestCloseIsIdempotent(t *testing.T) {
	conversations, _, _ := newConversationFixture()
	ctx := context.Background()

	conv, err := conversations.FindOrCreate(ctx, "user-1", entity.ChannelInternal)
	require.NoError(t, err)

	require.NoError(t, conversations.Close(ctx, conv.ID, "user-1", false))
	require.NoError(t, conversations.Close(ctx, conv.ID, "user-1", false))

	got, err := conversations.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.True(t, got.IsClosed())
}

func TestCloseRequiresPartyOrAdmin(t *testing.T) {
	conversations, _, _ := newConversationFixture()
	ctx := context.Background()

	conv, err := conversations.FindOrCreate(ctx, "user-1", entity.ChannelInternal)
	require.NoError(t, err)

	err = conversations.Close(ctx, conv.ID, "user-2", false)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	require.NoError(t, conversations.Close(ctx, conv.ID, "admin-1", true))
}

func TestNewConversationAfterClose(t *testing.T) {
	conversations, _, _ := newConversationFixture()
	ctx := context.Background()

	first, err := conversations.FindOrCreate(ctx, "user-1", entity.ChannelInternal)
	require.NoError(t, err)

	require.NoError(t, conversations.Close(ctx, first.ID, "user-1", false))

	second, err := conversations.FindOrCreate(ctx, "user-1", entity.ChannelInternal)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, entity.ConversationActive, second.Status)
}

func TestListActiveOrdersByLastMessage(t *testing.T) {
	conversations, messages, _ := newConversationFixture()
	ctx := context.Background()

	older, err := conversations.FindOrCreate(ctx, "user-1", entity.ChannelInternal)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	newer, err := conversations.FindOrCreate(ctx, "user-2", entity.ChannelInternal)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	// A new message in the older conversation moves it to the top.
	_, err = messages.Append(ctx, AppendMessageInput{
		ConversationID: older.ID,
		SenderID:       "user-1",
		SenderType:     entity.SenderUser,
		Content:        "hello",
	})
	require.NoError(t, err)

	list, total, err := conversations.ListActive(ctx, ListConversationsInput{Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	assert.Equal(t, older.ID, list[0].ID)
	assert.Equal(t, newer.ID, list[1].ID)
}

func TestListActiveExcludesClosed(t *testing.T) {
	conversations, _, _ := newConversationFixture()
	ctx := context.Background()

	open, err := conversations.FindOrCreate(ctx, "user-1", entity.ChannelInternal)
	require.NoError(t, err)

	closed, err := conversations.FindOrCreate(ctx, "user-2", entity.ChannelInternal)
	require.NoError(t, err)
	require.NoError(t, conversations.Close(ctx, closed.ID, "user-2", false))

	list, total, err := conversations.ListActive(ctx, ListConversationsInput{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, open.ID, list[0].ID)
}

func TestListActiveFiltersByAssignee(t *testing.T) {
	conversations, _, _ := newConversationFixture()
	ctx := context.Background()

	mine, err := conversations.FindOrCreate(ctx, "user-1", entity.ChannelInternal)
	require.NoError(t, err)
	_, err = conversations.AssignAdmin(ctx, mine.ID, "admin-1")
	require.NoError(t, err)

	_, err = conversations.FindOrCreate(ctx, "user-2", entity.ChannelInternal)
	require.NoError(t, err)

	list, total, err := conversations.ListActive(ctx, ListConversationsInput{AssignedAdminID: "admin-1", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)
}
