package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supporthub/internal/domain/entity"
)

func newTestClient(userID string, role Role) *Client {
	return &Client{
		UserID: userID,
		Role:   role,
		Send:   make(chan []byte, 8),
	}
}

func receiveFrame(t *testing.T, client *Client) Frame {
	t.Helper()
	select {
	case payload := <-client.Send:
		var frame Frame
		require.NoError(t, json.Unmarshal(payload, &frame))
		return frame
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return Frame{}
	}
}

func TestPublishWithNoObserversIsSafe(t *testing.T) {
	manager := NewManager()

	// No clients connected; must not block or panic.
	manager.PublishMessage("conv-1", &entity.Message{ID: "msg-1", ConversationID: "conv-1"})
	manager.PublishReadReceipt("conv-1", "msg-1", "user-1")
	manager.PublishConversation(&entity.Conversation{ID: "conv-1"})
}

func TestJoinedClientReceivesMessageFrame(t *testing.T) {
	manager := NewManager()
	client := newTestClient("user-1", RoleUser)

	manager.JoinConversation(client, "conv-1")
	manager.PublishMessage("conv-1", &entity.Message{ID: "msg-1", ConversationID: "conv-1", Content: "hello"})

	frame := receiveFrame(t, client)
	assert.Equal(t, FrameNewMessage, frame.Type)
	assert.Equal(t, "conv-1", frame.ConversationID)
}

func TestClientOnlySeesJoinedConversation(t *testing.T) {
	manager := NewManager()
	client := newTestClient("user-1", RoleUser)

	manager.JoinConversation(client, "conv-1")
	manager.PublishMessage("conv-2", &entity.Message{ID: "msg-1", ConversationID: "conv-2"})

	select {
	case <-client.Send:
		t.Fatal("received frame for a conversation the client never joined")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAdminReceivesFanOutWithoutJoining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := NewManager()
	manager.Start(ctx)

	admin := newTestClient("admin-1", RoleAdmin)
	manager.Register <- admin
	registered := receiveFrame(t, admin)
	require.Equal(t, FrameRegistered, registered.Type)

	manager.PublishMessage("conv-1", &entity.Message{ID: "msg-1", ConversationID: "conv-1"})

	frame := receiveFrame(t, admin)
	assert.Equal(t, FrameNewMessage, frame.Type)

	manager.PublishConversation(&entity.Conversation{ID: "conv-2"})
	frame = receiveFrame(t, admin)
	assert.Equal(t, FrameNewConversation, frame.Type)
}

func TestAdminInRoomReceivesFrameOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := NewManager()
	manager.Start(ctx)

	admin := newTestClient("admin-1", RoleAdmin)
	manager.Register <- admin
	receiveFrame(t, admin) // registered

	manager.JoinConversation(admin, "conv-1")
	manager.PublishMessage("conv-1", &entity.Message{ID: "msg-1", ConversationID: "conv-1"})

	receiveFrame(t, admin)
	select {
	case <-admin.Send:
		t.Fatal("admin received the same frame twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSlowClientDropsPushInsteadOfBlocking(t *testing.T) {
	manager := NewManager()
	client := &Client{
		UserID: "user-1",
		Role:   RoleUser,
		Send:   make(chan []byte), // unbuffered and never read
	}

	manager.JoinConversation(client, "conv-1")

	done := make(chan struct{})
	go func() {
		manager.PublishMessage("conv-1", &entity.Message{ID: "msg-1", ConversationID: "conv-1"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow client")
	}
}

func TestLeaveConversationStopsDelivery(t *testing.T) {
	manager := NewManager()
	client := newTestClient("user-1", RoleUser)

	manager.JoinConversation(client, "conv-1")
	manager.LeaveConversation(client, "conv-1")
	manager.PublishMessage("conv-1", &entity.Message{ID: "msg-1", ConversationID: "conv-1"})

	select {
	case <-client.Send:
		t.Fatal("received frame after leaving the conversation")
	case <-time.After(50 * time.Millisecond):
	}
}
