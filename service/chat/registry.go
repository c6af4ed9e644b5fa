package chat

import "sync"

// Registry maps a user identity to that user's single live session.
// Process-local only; after a restart it rebuilds from reconnects.
// Constructed at service start and injected wherever fan-out needs it.
type Registry struct {
	mu     sync.RWMutex
	byUser map[int64]Peer
}

func NewRegistry() *Registry {
	return &Registry{byUser: make(map[int64]Peer)}
}

// Register installs sess as the user's current session, superseding any
// previous one without closing it.
func (r *Registry) Register(userID int64, sess Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[userID] = sess
}

// Unregister removes the mapping only when sess is still the registered
// one. A slow-closing old connection therefore cannot evict a newer
// reconnect.
func (r *Registry) Unregister(userID int64, sess Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.byUser[userID]; ok && cur == sess {
		delete(r.byUser, userID)
	}
}

// Lookup returns the user's current session, or nil when offline.
func (r *Registry) Lookup(userID int64) Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byUser[userID]
}

func (r *Registry) IsOnline(userID int64) bool {
	return r.Lookup(userID) != nil
}

// Count returns the online population. Diagnostic only.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
