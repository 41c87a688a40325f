// Package session holds per-conversation state. Turns are owned by an
// explicit session object passed by reference, never by package-level state,
// so concurrent sessions share nothing.
package session

import (
	"sync"

	"github.com/google/uuid"
)

// Role identifies the author of a conversation turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single conversation turn. Turns are append-only: nothing in the
// pipeline mutates past turns.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is one user conversation.
type Session struct {
	ID string

	mu    sync.RWMutex
	turns []Turn
}

// New creates an empty session with a fresh random id. Session ids are the
// one place a random identifier is right: they name a conversation, not
// content.
func New() *Session {
	return &Session{ID: uuid.New().String()}
}

// Append adds a turn to the end of the conversation.
func (s *Session) Append(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, Turn{Role: role, Content: content})
}

// Turns returns a copy of all turns in chronological order.
func (s *Session) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Window returns a copy of the last n turns (all turns when fewer exist).
func (s *Session) Window(n int) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n > len(s.turns) {
		n = len(s.turns)
	}
	out := make([]Turn, n)
	copy(out, s.turns[len(s.turns)-n:])
	return out
}

// Len returns the number of turns.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Store is an in-memory registry of live sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Get returns the session with the given id, if it exists.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Create registers and returns a new session.
func (s *Store) Create() *Session {
	sess := New()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess
}
