package chatclient

import (
	"context"
	"errors"
	"sort"
	"sync"

	"chat_service/internal/chat/domain"
	memberdomain "chat_service/internal/member/domain"
	"chat_service/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrNotConnected Listen called before Connect
var ErrNotConnected = errors.New("websocket not connected")

type inboundEvent struct {
	Event   domain.Event    `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Session client side view of one logged in member
type Session struct {
	client *Client
	Unseen *UnseenCounter

	mu         sync.RWMutex
	activePeer string
	users      []memberdomain.Member
	messages   []domain.Message
	online     map[string]struct{}
	conn       *websocket.Conn
}

// NewSession wrap an authenticated client
func NewSession(client *Client) *Session {
	return &Session{
		client: client,
		Unseen: NewUnseenCounter(),
		online: map[string]struct{}{},
	}
}

// LoadSidebar fetch users and replace unseen counts
func (s *Session) LoadSidebar(ctx context.Context) ([]memberdomain.Member, error) {
	users, counts, err := s.client.Sidebar(ctx)
	if err != nil {
		return nil, err
	}
	s.Unseen.Load(counts)

	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
	return users, nil
}

// OpenConversation 先把未讀歸零再抓歷史, 抓取失敗時仍維持歸零
func (s *Session) OpenConversation(ctx context.Context, peerID string) ([]domain.Message, error) {
	s.Unseen.Reset(peerID)

	s.mu.Lock()
	s.activePeer = peerID
	s.messages = nil
	s.mu.Unlock()

	messages, err := s.client.Conversation(ctx, peerID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// 抓取期間切換了對話
	if s.activePeer != peerID {
		return messages, nil
	}
	s.messages = mergeMessages(messages, s.messages)
	return messages, nil
}

// mergeMessages 歷史在前, 抓取期間推播進來的接在後面, 同 id 只留歷史那筆
func mergeMessages(history, pushed []domain.Message) []domain.Message {
	merged := make([]domain.Message, 0, len(history)+len(pushed))
	merged = append(merged, history...)
	seen := make(map[string]struct{}, len(history))
	for _, m := range history {
		seen[m.ID] = struct{}{}
	}
	for _, m := range pushed {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		merged = append(merged, m)
	}
	return merged
}

// CloseConversation no active peer, new messages go to unseen
func (s *Session) CloseConversation() {
	s.mu.Lock()
	s.activePeer = ""
	s.messages = nil
	s.mu.Unlock()
}

// ActivePeer peer of the open conversation
func (s *Session) ActivePeer() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activePeer
}

// Messages copy of the open conversation
func (s *Session) Messages() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Message(nil), s.messages...)
}

// IsOnline peer in the last getOnlineUsers broadcast
func (s *Session) IsOnline(peerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.online[peerID]
	return ok
}

// OnlineUsers sorted ids from the last broadcast
func (s *Session) OnlineUsers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.online))
	for id := range s.online {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Send post message, append to the open conversation
func (s *Session) Send(ctx context.Context, peerID string, content domain.MessageContent) (*domain.Message, error) {
	msg, err := s.client.Send(ctx, peerID, content)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.activePeer == peerID {
		s.messages = append(s.messages, *msg)
	}
	s.mu.Unlock()
	return msg, nil
}

// HandleEvent apply one realtime event
func (s *Session) HandleEvent(ctx context.Context, event domain.Event, payload []byte) error {
	switch event {
	case domain.EventNewMessage:
		var msg domain.Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			return err
		}
		s.receive(ctx, msg)
	case domain.EventGetOnlineUsers:
		var ids []string
		if err := json.Unmarshal(payload, &ids); err != nil {
			return err
		}
		online := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			online[id] = struct{}{}
		}
		s.mu.Lock()
		s.online = online
		s.mu.Unlock()
	default:
		logger.Log.Debug("ignore event", zap.String("event", string(event)))
	}
	return nil
}

func (s *Session) receive(ctx context.Context, msg domain.Message) {
	s.mu.Lock()
	active := s.activePeer != "" && s.activePeer == msg.SenderID
	if active {
		msg.Seen = true
		s.messages = append(s.messages, msg)
	}
	s.mu.Unlock()

	if !active {
		s.Unseen.Increment(msg.SenderID)
		return
	}

	// 正在看這段對話, 直接回報已讀
	if err := s.client.MarkSeen(ctx, msg.ID); err != nil {
		logger.Log.Warn("mark seen failed", zap.String("messageID", msg.ID), zap.Error(err))
	}
}

// Connect open the websocket with the client token
func (s *Session) Connect(ctx context.Context) error {
	conn, err := s.client.Dial(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	return nil
}

// Listen read events until ctx done or the connection closes
func (s *Session) Listen(ctx context.Context) error {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		var in inboundEvent
		if err := json.Unmarshal(raw, &in); err != nil {
			logger.Log.Warn("bad frame", zap.Error(err))
			continue
		}
		// action 回應沒有 event 欄位
		if in.Event == "" {
			continue
		}
		if err := s.HandleEvent(ctx, in.Event, in.Payload); err != nil {
			logger.Log.Warn("bad event payload", zap.String("event", string(in.Event)), zap.Error(err))
		}
	}
}

// Close drop the websocket
func (s *Session) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}
