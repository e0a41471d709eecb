package domain

// Event server push event name
type Event string

const (
	// EventNewMessage 新訊息推播給收件者
	EventNewMessage Event = "newMessage"
	// EventGetOnlineUsers 線上名單廣播
	EventGetOnlineUsers Event = "getOnlineUsers"
)

// Action websocket request action
type Action string

const (
	// MarkSeen websocket action mark_seen
	MarkSeen Action = "mark_seen"
	// GetOnlineUsers websocket action get_online_users
	GetOnlineUsers Action = "get_online_users"
)

// WSEvent server push frame
type WSEvent struct {
	Event   Event       `json:"event"`
	Payload interface{} `json:"payload"`
}

// WSRequest websocket Request
type WSRequest struct {
	Action    string `json:"action"`
	MessageID string `json:"message_id"`
}

// WSResponse websocket Response
type WSResponse struct {
	Action  string                 `json:"action"`
	Success bool                   `json:"success"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Error   string                 `json:"error,omitempty"`
}
