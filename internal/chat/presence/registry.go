package presence

import (
	"errors"
	"sort"
	"sync"

	"chat_service/internal/chat/domain"
	"chat_service/pkg/logger"

	"go.uber.org/zap"
)

// ErrRegistryClosed register after Shutdown
var ErrRegistryClosed = errors.New("presence registry closed")

// Connection live push channel of one user
type Connection interface {
	ID() string
	Push(event domain.Event, payload interface{}) error
	Close() error
}

// Registry userID -> live connection, 同一使用者後連線覆蓋前連線
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]Connection
	closed bool
}

// NewRegistry create empty registry
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Connection)}
}

// Register store conn for userID and broadcast the online set
func (r *Registry) Register(userID string, conn Connection) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRegistryClosed
	}
	r.conns[userID] = conn
	online, targets := r.snapshotLocked()
	r.mu.Unlock()

	logger.Log.Debug("presence register", zap.String("userID", userID), zap.String("connID", conn.ID()))
	broadcast(online, targets)
	return nil
}

// Unregister remove userID only when it still maps to conn
func (r *Registry) Unregister(userID string, conn Connection) bool {
	r.mu.Lock()
	current, ok := r.conns[userID]
	if !ok || current.ID() != conn.ID() {
		r.mu.Unlock()
		return false
	}
	delete(r.conns, userID)
	online, targets := r.snapshotLocked()
	r.mu.Unlock()

	logger.Log.Debug("presence unregister", zap.String("userID", userID), zap.String("connID", conn.ID()))
	broadcast(online, targets)
	return true
}

// Lookup current connection of userID
func (r *Registry) Lookup(userID string) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[userID]
	return conn, ok
}

// OnlineUsers sorted online user ids
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	online, _ := r.snapshotLocked()
	return online
}

// Shutdown close every connection, later Register fails
func (r *Registry) Shutdown() {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[string]Connection)
	r.closed = true
	r.mu.Unlock()

	for userID, conn := range conns {
		if err := conn.Close(); err != nil {
			logger.Log.Warn("presence close connection", zap.String("userID", userID), zap.Error(err))
		}
	}
}

func (r *Registry) snapshotLocked() ([]string, []Connection) {
	online := make([]string, 0, len(r.conns))
	targets := make([]Connection, 0, len(r.conns))
	for id, conn := range r.conns {
		online = append(online, id)
		targets = append(targets, conn)
	}
	sort.Strings(online)
	return online, targets
}

// 推播在鎖外進行, 單一連線失敗不影響其他人
func broadcast(online []string, targets []Connection) {
	for _, conn := range targets {
		if err := conn.Push(domain.EventGetOnlineUsers, online); err != nil {
			logger.Log.Warn("broadcast online users failed", zap.String("connID", conn.ID()), zap.Error(err))
		}
	}
}
