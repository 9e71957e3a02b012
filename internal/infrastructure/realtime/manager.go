package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"supporthub/internal/domain/entity"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Client represents one authenticated realtime connection. Admins observe
// every conversation; users observe only conversations they join.
type Client struct {
	UserID string
	Role   Role
	Conn   *websocket.Conn
	Send   chan []byte
}

// Manager is the delivery fan-out hub. Publishing is best-effort: a message
// is pushed to whoever is connected and silently dropped for everyone else,
// because every observer has the polling fallback as its guaranteed path.
type Manager struct {
	clients map[string]*Client            // by user ID
	rooms   map[string]map[string]*Client // conversation ID -> user ID -> client

	Register   chan *Client
	Unregister chan *Client

	mutex sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start runs the manager's registration loop in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				if existing, ok := m.clients[client.UserID]; ok && existing != client {
					close(existing.Send)
					m.removeFromRoomsLocked(existing)
				}
				m.clients[client.UserID] = client
				m.mutex.Unlock()
				log.Printf("Realtime: client registered: %s (%s)", client.UserID, client.Role)
				m.sendToClient(client, Frame{
					Type:      FrameRegistered,
					Data:      map[string]string{"user_id": client.UserID, "role": string(client.Role)},
					Timestamp: time.Now().Format(time.RFC3339),
				})

			case client := <-m.Unregister:
				m.mutex.Lock()
				if current, ok := m.clients[client.UserID]; ok && current == client {
					delete(m.clients, client.UserID)
					m.removeFromRoomsLocked(client)
					close(client.Send)
				}
				m.mutex.Unlock()
				log.Printf("Realtime: client unregistered: %s", client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *Manager) removeFromRoomsLocked(client *Client) {
	for conversationID, room := range m.rooms {
		if room[client.UserID] == client {
			delete(room, client.UserID)
			if len(room) == 0 {
				delete(m.rooms, conversationID)
			}
		}
	}
}

// JoinConversation subscribes a client to one conversation's pushes.
func (m *Manager) JoinConversation(client *Client, conversationID string) {
	if conversationID == "" {
		return
	}
	m.mutex.Lock()
	room, ok := m.rooms[conversationID]
	if !ok {
		room = make(map[string]*Client)
		m.rooms[conversationID] = room
	}
	room[client.UserID] = client
	m.mutex.Unlock()
}

// LeaveConversation removes the client's subscription to a conversation.
func (m *Manager) LeaveConversation(client *Client, conversationID string) {
	m.mutex.Lock()
	if room, ok := m.rooms[conversationID]; ok {
		if room[client.UserID] == client {
			delete(room, client.UserID)
			if len(room) == 0 {
				delete(m.rooms, conversationID)
			}
		}
	}
	m.mutex.Unlock()
}

// PublishMessage notifies every observer of the conversation about a freshly
// persisted message. Delivery is at-least-once and non-blocking: observers
// de-duplicate by message ID, and a full send buffer drops the push rather
// than stalling the write path.
func (m *Manager) PublishMessage(conversationID string, message *entity.Message) {
	frame := Frame{
		Type:           FrameNewMessage,
		ConversationID: conversationID,
		Data:           map[string]interface{}{"conversation_id": conversationID, "message": message},
		Timestamp:      time.Now().Format(time.RFC3339),
	}
	m.publish(conversationID, frame)
}

// PublishConversation notifies admin observers that a conversation was
// created, so dashboards pick it up without waiting for the next poll.
func (m *Manager) PublishConversation(conversation *entity.Conversation) {
	frame := Frame{
		Type:      FrameNewConversation,
		Data:      map[string]interface{}{"conversation": conversation},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		log.Printf("Realtime: failed to marshal conversation frame: %v", err)
		return
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for _, client := range m.clients {
		if client.Role == RoleAdmin {
			m.trySend(client, payload)
		}
	}
}

// PublishReadReceipt notifies conversation observers that a message was read.
func (m *Manager) PublishReadReceipt(conversationID, messageID, readerID string) {
	frame := Frame{
		Type:           FrameReadReceipt,
		ConversationID: conversationID,
		Data: ReadReceiptData{
			ConversationID: conversationID,
			MessageID:      messageID,
			ReaderID:       readerID,
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	m.publish(conversationID, frame)
}

// publish fans a frame out to the conversation's room plus every connected
// admin. Duplicate delivery to an admin who also joined the room is fine.
func (m *Manager) publish(conversationID string, frame Frame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		log.Printf("Realtime: failed to marshal frame %s: %v", frame.Type, err)
		return
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	delivered := make(map[string]bool)
	if room, ok := m.rooms[conversationID]; ok {
		for userID, client := range room {
			m.trySend(client, payload)
			delivered[userID] = true
		}
	}
	for userID, client := range m.clients {
		if client.Role == RoleAdmin && !delivered[userID] {
			m.trySend(client, payload)
		}
	}
}

// trySend never blocks; a slow consumer loses the push and reconciles by polling.
func (m *Manager) trySend(client *Client, payload []byte) {
	select {
	case client.Send <- payload:
	default:
		log.Printf("Realtime: dropping push for slow client %s", client.UserID)
	}
}

func (m *Manager) sendToClient(client *Client, frame Frame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	m.trySend(client, payload)
}

func (m *Manager) sendErrorToClient(client *Client, message string) {
	m.sendToClient(client, Frame{
		Type:      FrameError,
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// HandleClientFrame processes one inbound frame from a connected client.
func (m *Manager) HandleClientFrame(client *Client, raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		log.Printf("Realtime: invalid frame from client %s: %v", client.UserID, err)
		m.sendErrorToClient(client, "Invalid frame format")
		return
	}

	switch frame.Type {
	case FramePing:
		m.sendToClient(client, Frame{
			Type:      FramePong,
			Data:      map[string]string{"status": "alive"},
			Timestamp: time.Now().Format(time.RFC3339),
		})

	case FrameJoinConversation:
		m.JoinConversation(client, frame.ConversationID)

	case FrameLeaveConversation:
		m.LeaveConversation(client, frame.ConversationID)

	default:
		log.Printf("Realtime: unknown frame type %q from client %s", frame.Type, client.UserID)
		m.sendErrorToClient(client, "Unknown frame type")
	}
}

// ReadPump reads frames from the connection until it closes.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Realtime: read error for client %s: %v", c.UserID, err)
			}
			break
		}
		m.HandleClientFrame(c, raw)
	}
}

// WritePump flushes the send buffer to the connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		payload, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("Realtime: write error for client %s: %v", c.UserID, err)
			return
		}
	}
}
