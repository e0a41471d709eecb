package domain

import (
	"strings"
	"time"

	errprocess "chat_service/pkg/err"
)

// MessageCollection mongo collection name
const MessageCollection = "messages"

// Message 一對一訊息, json 欄位沿用前端既有格式
type Message struct {
	ID         string    `bson:"_id" json:"_id"`
	SenderID   string    `bson:"sender_id" json:"senderId"`
	ReceiverID string    `bson:"receiver_id" json:"receiverId"`
	Text       string    `bson:"text,omitempty" json:"text,omitempty"`
	Image      string    `bson:"image,omitempty" json:"image,omitempty"`
	Seen       bool      `bson:"seen" json:"seen"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updatedAt"`
}

// MessageContent send message request body, image 為 data uri
type MessageContent struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// Validate at least one of text / image
func (c MessageContent) Validate() error {
	if strings.TrimSpace(c.Text) == "" && c.Image == "" {
		return errprocess.Validation("message must contain text or image")
	}
	return nil
}

// EventType delivery audit event type
type EventType string

const (
	// EventMessageSent message persisted
	EventMessageSent EventType = "message.sent"
	// EventMessageSeen single message marked seen
	EventMessageSeen EventType = "message.seen"
	// EventConversationSeen peer messages bulk marked seen on fetch
	EventConversationSeen EventType = "conversation.seen"
)

// MessageEvent audit event written to the event stream
type MessageEvent struct {
	Type       EventType `json:"type"`
	MessageID  string    `json:"message_id,omitempty"`
	SenderID   string    `json:"sender_id,omitempty"`
	ReceiverID string    `json:"receiver_id,omitempty"`
	HasImage   bool      `json:"has_image,omitempty"`
	Count      int64     `json:"count,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PairKey stable key for one sender/receiver pair, 用於 kafka partition
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}
