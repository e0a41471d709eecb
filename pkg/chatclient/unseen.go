package chatclient

import "sync"

// UnseenCounter per-peer unseen badge counts held by the client
type UnseenCounter struct {
	mu     sync.RWMutex
	counts map[string]int
}

// NewUnseenCounter create empty counter
func NewUnseenCounter() *UnseenCounter {
	return &UnseenCounter{counts: map[string]int{}}
}

// Load replace all counts with the sidebar response
func (u *UnseenCounter) Load(counts map[string]int) {
	next := make(map[string]int, len(counts))
	for peer, n := range counts {
		if n > 0 {
			next[peer] = n
		}
	}
	u.mu.Lock()
	u.counts = next
	u.mu.Unlock()
}

// Increment one more unseen message from peer
func (u *UnseenCounter) Increment(peer string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.counts[peer]++
	return u.counts[peer]
}

// Reset peer to zero, 打開對話時使用
func (u *UnseenCounter) Reset(peer string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.counts, peer)
}

// Get count for peer
func (u *UnseenCounter) Get(peer string) int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.counts[peer]
}

// Snapshot copy of non-zero counts
func (u *UnseenCounter) Snapshot() map[string]int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make(map[string]int, len(u.counts))
	for peer, n := range u.counts {
		out[peer] = n
	}
	return out
}
