package gateway

import "sync"

// SessionRegistry tracks which connections each user currently holds and
// the reverse lookup. A user is online iff their connection set is
// non-empty. The registry is owned by a Hub instance, never shared as a
// package global, so parallel hubs (tests, future sharding) cannot leak
// state into each other.
type SessionRegistry struct {
	mu    sync.RWMutex
	users map[string]map[string]struct{} // userID -> set of connection ids
	conns map[string]string              // connection id -> userID
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		users: make(map[string]map[string]struct{}),
		conns: make(map[string]string),
	}
}

// Add inserts connID into userID's set and reports whether this was the
// user's first open connection (the offline -> online transition).
func (r *SessionRegistry) Add(userID, connID string) (first bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.users[userID]
	if !ok {
		set = make(map[string]struct{})
		r.users[userID] = set
	}
	set[connID] = struct{}{}
	r.conns[connID] = userID
	return len(set) == 1
}

// Remove drops connID and reports whether the user's set is now empty
// (the online -> offline transition). The reverse lookup is always
// removed, even for connections that never completed registration.
func (r *SessionRegistry) Remove(userID, connID string) (last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.conns, connID)
	set, ok := r.users[userID]
	if !ok {
		return false
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(r.users, userID)
		return true
	}
	return false
}

func (r *SessionRegistry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID]) > 0
}

// Connections returns the connection ids currently open for a user.
func (r *SessionRegistry) Connections(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.users[userID]))
	for id := range r.users[userID] {
		ids = append(ids, id)
	}
	return ids
}

// UserFor resolves a connection id back to its user.
func (r *SessionRegistry) UserFor(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.conns[connID]
	return userID, ok
}

// OnlineCount reports how many distinct users hold at least one connection.
func (r *SessionRegistry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
