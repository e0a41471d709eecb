package app

import (
	"context"
	"sync"

	"chat_service/internal/chat/domain"
	memberdomain "chat_service/internal/member/domain"

	"github.com/stretchr/testify/mock"
)

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Insert mock insert message
func (m *MockMessageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// FindConversation mock conversation
func (m *MockMessageRepository) FindConversation(ctx context.Context, userA, userB string) ([]domain.Message, error) {
	args := m.Called(ctx, userA, userB)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// MarkConversationSeen mock bulk seen
func (m *MockMessageRepository) MarkConversationSeen(ctx context.Context, senderID, receiverID string) (int64, error) {
	args := m.Called(ctx, senderID, receiverID)
	return args.Get(0).(int64), args.Error(1)
}

// MarkSeen mock single seen
func (m *MockMessageRepository) MarkSeen(ctx context.Context, messageID string) (bool, error) {
	args := m.Called(ctx, messageID)
	return args.Bool(0), args.Error(1)
}

// CountUnseenBySender mock unseen counts
func (m *MockMessageRepository) CountUnseenBySender(ctx context.Context, receiverID string) (map[string]int, error) {
	args := m.Called(ctx, receiverID)
	if args.Get(0) != nil {
		return args.Get(0).(map[string]int), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMemberDirectory Mock MemberDirectory
type MockMemberDirectory struct {
	mock.Mock
}

// FindByID mock find member
func (m *MockMemberDirectory) FindByID(ctx context.Context, memberID string) (*memberdomain.Member, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) != nil {
		return args.Get(0).(*memberdomain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

// ListExcept mock list members
func (m *MockMemberDirectory) ListExcept(ctx context.Context, memberID string) ([]memberdomain.Member, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) != nil {
		return args.Get(0).([]memberdomain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockAssetStore Mock AssetStore
type MockAssetStore struct {
	mock.Mock
}

// UploadImage mock upload
func (m *MockAssetStore) UploadImage(ctx context.Context, dataURI string) (string, error) {
	args := m.Called(ctx, dataURI)
	return args.String(0), args.Error(1)
}

// MockEventPublisher Mock EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

// Publish mock publish
func (m *MockEventPublisher) Publish(ctx context.Context, event domain.MessageEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// Close mock close
func (m *MockEventPublisher) Close() error {
	return m.Called().Error(0)
}

type pushedEvent struct {
	Event   domain.Event
	Payload interface{}
}

// recordingConn presence.Connection 測試替身, 記錄所有推播
type recordingConn struct {
	id      string
	mu      sync.Mutex
	events  []pushedEvent
	pushErr error
	closed  bool
}

func newRecordingConn(id string) *recordingConn { return &recordingConn{id: id} }

func (c *recordingConn) ID() string { return c.id }

func (c *recordingConn) Push(event domain.Event, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, pushedEvent{Event: event, Payload: payload})
	return c.pushErr
}

func (c *recordingConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// messagesPushed newMessage payloads in push order
func (c *recordingConn) messagesPushed() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.Message
	for _, e := range c.events {
		if e.Event == domain.EventNewMessage {
			out = append(out, e.Payload.(domain.Message))
		}
	}
	return out
}
