package game

import "sync"

// Type identifies a game kind within the session registry.
type Type string

// Registered game types. Different types may run concurrently in one chat;
// the registry only enforces exclusivity per (chat, type).
const (
	TypeFarm     Type = "farm"
	TypeStanding Type = "standing"
	TypeLastWord Type = "lastword"
)

type sessionKey struct {
	chatID int64
	game   Type
}

// Registry maps a chat to at most one active session per game type. It is
// the single owner of session lifetimes: sessions enter on lobby creation
// and leave on completion, cancellation or timeout.
type Registry struct {
	mu       sync.RWMutex
	sessions map[sessionKey]any
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[sessionKey]any)}
}

// Lookup returns the active session for (chat, type), if any.
func (r *Registry) Lookup(chatID int64, game Type) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionKey{chatID, game}]
	return s, ok
}

// Create registers a new session. Returns ErrAlreadyActive if a session of
// the same type already exists in the chat.
func (r *Registry) Create(chatID int64, game Type, session any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := sessionKey{chatID, game}
	if _, ok := r.sessions[key]; ok {
		return ErrAlreadyActive
	}
	r.sessions[key] = session
	return nil
}

// Remove drops the session for (chat, type). Removing a session that is
// already gone is a no-op, so late timer callbacks can call it safely.
func (r *Registry) Remove(chatID int64, game Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionKey{chatID, game})
}

// ActiveTypes returns the game types currently running in a chat.
func (r *Registry) ActiveTypes(chatID int64) []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Type
	for key := range r.sessions {
		if key.chatID == chatID {
			out = append(out, key.game)
		}
	}
	return out
}

// Count returns the total number of active sessions across all chats.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
