package chat

import (
	"sort"
	"strings"
	"sync"
)

// Registry is the authoritative set of active sessions, keyed by username.
// Admission and removal are atomic under a single mutex, so a broadcast
// snapshot never observes a half-added or half-removed session.
type Registry struct {
	maxUsername int

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry builds an empty registry enforcing the given username bound.
func NewRegistry(maxUsername int) *Registry {
	if maxUsername <= 0 {
		maxUsername = 16
	}
	return &Registry{
		maxUsername: maxUsername,
		sessions:    make(map[string]*Session),
	}
}

// Admit validates the username and atomically check-and-inserts the
// session. On ErrUsernameTaken the existing session is left untouched.
func (r *Registry) Admit(username string, s *Session) error {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > r.maxUsername {
		return ErrUsernameInvalid
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[username]; exists {
		return ErrUsernameTaken
	}
	s.Username = username
	r.sessions[username] = s
	return nil
}

// Remove deletes the session registered under username. Removing an absent
// username is a no-op.
func (r *Registry) Remove(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, username)
}

// Snapshot returns a consistent point-in-time view of the active sessions
// for the broadcaster to iterate without holding the lock.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Usernames lists the online usernames in sorted order.
func (r *Registry) Usernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sessions))
	for name := range r.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of active sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
