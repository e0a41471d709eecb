package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"chat_service/internal/chat/domain"
	memberdomain "chat_service/internal/member/domain"
	memberrepo "chat_service/internal/member/repository"
)

// memoryStore in-memory MessageRepository + MemberDirectory, 行為對齊 mongo 實作
type memoryStore struct {
	mu       sync.Mutex
	messages map[string]domain.Message
	members  map[string]memberdomain.Member
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		messages: map[string]domain.Message{},
		members:  map[string]memberdomain.Member{},
	}
}

func (s *memoryStore) addMember(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[id] = memberdomain.Member{ID: id, FullName: id}
}

func (s *memoryStore) Insert(ctx context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ID] = *msg
	return nil
}

func (s *memoryStore) FindConversation(ctx context.Context, userA, userB string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Message{}
	for _, m := range s.messages {
		if (m.SenderID == userA && m.ReceiverID == userB) || (m.SenderID == userB && m.ReceiverID == userA) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *memoryStore) MarkConversationSeen(ctx context.Context, senderID, receiverID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, m := range s.messages {
		if m.SenderID == senderID && m.ReceiverID == receiverID && !m.Seen {
			m.Seen = true
			m.UpdatedAt = time.Now().UTC()
			s.messages[id] = m
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) MarkSeen(ctx context.Context, messageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[messageID]
	if !ok {
		return false, nil
	}
	m.Seen = true
	s.messages[messageID] = m
	return true, nil
}

func (s *memoryStore) CountUnseenBySender(ctx context.Context, receiverID string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int{}
	for _, m := range s.messages {
		if m.ReceiverID == receiverID && !m.Seen {
			counts[m.SenderID]++
		}
	}
	return counts, nil
}

func (s *memoryStore) FindByID(ctx context.Context, memberID string) (*memberdomain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[memberID]
	if !ok {
		return nil, memberrepo.ErrMemberNotFound
	}
	return &m, nil
}

func (s *memoryStore) ListExcept(ctx context.Context, memberID string) ([]memberdomain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []memberdomain.Member{}
	for id, m := range s.members {
		if id != memberID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
