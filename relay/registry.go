package relay

import (
	"sort"
	"sync"
)

// Session is one connected participant.
type Session struct {
	ConnID   string
	UID      string
	Location Location
	HasMoved bool
}

// SessionRegistry tracks sessions by connection id. A uid may own several
// connections; it stays on the roster until the last one leaves.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*Session)}
}

// Add registers a connection. It reports whether uid is new to the roster.
func (r *SessionRegistry) Add(connID, uid string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	isNew := !r.hasUIDLocked(uid)
	r.sessions[connID] = &Session{ConnID: connID, UID: uid}
	return isNew
}

// Remove drops a connection. It reports whether its uid left the roster.
func (r *SessionRegistry) Remove(connID string) (uid string, departed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[connID]
	if !ok {
		return "", false
	}
	delete(r.sessions, connID)
	return s.UID, !r.hasUIDLocked(s.UID)
}

// UpdateLocation records the latest location of a connection.
func (r *SessionRegistry) UpdateLocation(connID string, loc Location) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[connID]
	if !ok {
		return false
	}
	s.Location = loc
	s.HasMoved = true
	return true
}

func (r *SessionRegistry) Get(connID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[connID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Roster returns the distinct uids, sorted.
func (r *SessionRegistry) Roster() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{}, len(r.sessions))
	users := make([]string, 0, len(r.sessions))
	for _, s := range r.sessions {
		if _, dup := seen[s.UID]; dup {
			continue
		}
		seen[s.UID] = struct{}{}
		users = append(users, s.UID)
	}
	sort.Strings(users)
	return users
}

// Snapshot returns the latest location per uid that has moved, sorted by uid.
func (r *SessionRegistry) Snapshot() []Position {
	r.mu.RLock()
	defer r.mu.RUnlock()
	latest := make(map[string]Location)
	for _, s := range r.sessions {
		if s.HasMoved {
			latest[s.UID] = s.Location
		}
	}
	out := make([]Position, 0, len(latest))
	for uid, loc := range latest {
		out = append(out, Position{UID: uid, Location: loc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out
}

func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *SessionRegistry) hasUIDLocked(uid string) bool {
	for _, s := range r.sessions {
		if s.UID == uid {
			return true
		}
	}
	return false
}
