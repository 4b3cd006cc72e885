package session

import (
	"sync"

	"github.com/ellyseum/ellymud-sub008/internal/game"
	"github.com/ellyseum/ellymud-sub008/internal/storage"
)

// Session is one connected player. The login flow and wire protocol live
// elsewhere; the world layer sees only the game.Session interface.
type Session struct {
	username string
	speed    int

	mu     sync.Mutex
	roomId storage.Identifier
}

func NewSession(username string, speed int) *Session {
	return &Session{username: username, speed: speed}
}

func (s *Session) Username() string {
	return s.username
}

func (s *Session) RoomId() storage.Identifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomId
}

func (s *Session) SetRoomId(id storage.Identifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomId = id
}

func (s *Session) Speed() int {
	return s.speed
}

// Manager owns the collection of connected sessions. The world layer only
// reads it through game.SessionSource.
type Manager struct {
	mu       sync.RWMutex
	sessions []*Session
}

func NewManager() *Manager {
	return &Manager{}
}

// Add registers a connected session.
func (m *Manager) Add(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, s)
}

// Remove drops a session by username. No-op when absent.
func (m *Manager) Remove(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.sessions {
		if s.username == username {
			m.sessions = append(m.sessions[:i], m.sessions[i+1:]...)
			return
		}
	}
}

// ForEachSession satisfies game.SessionSource. The callback returns false
// to stop early.
func (m *Manager) ForEachSession(fn func(game.Session) bool) {
	m.mu.RLock()
	snapshot := append([]*Session(nil), m.sessions...)
	m.mu.RUnlock()

	for _, s := range snapshot {
		if !fn(s) {
			return
		}
	}
}
