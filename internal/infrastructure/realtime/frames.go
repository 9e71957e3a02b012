package realtime

// Frame types exchanged over the realtime channel. The server emits
// new_message, new_conversation and read_receipt; clients send the rest.
const (
	FramePing              = "ping"
	FramePong              = "pong"
	FrameRegistered        = "registered"
	FrameJoinConversation  = "join_conversation"
	FrameLeaveConversation = "leave_conversation"
	FrameNewMessage        = "new_message"
	FrameNewConversation   = "new_conversation"
	FrameReadReceipt       = "read_receipt"
	FrameError             = "error"
)

// Frame is the envelope for every realtime exchange.
type Frame struct {
	Type           string      `json:"type"`
	ConversationID string      `json:"conversation_id,omitempty"`
	Data           interface{} `json:"data,omitempty"`
	Timestamp      string      `json:"timestamp"`
}

type ReadReceiptData struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	ReaderID       string `json:"reader_id"`
}
