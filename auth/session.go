package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/synageion/synageion/internal/models"
)

// Session is the per-browser state held by the process.
// The role is captured at login and not re-read from the database.
type Session struct {
	ID           string
	UserID       uint
	Username     string
	Role         models.RoleName
	LoginAt      time.Time
	LastActivity time.Time
}

// Store keeps active sessions in memory. Sessions do not survive a restart.
// Callers always receive copies; only the store mutates its entries.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewStore creates an empty session store using the wall clock.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session), now: time.Now}
}

// SetClock replaces the time source. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Now returns the store's current time.
func (s *Store) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()
}

// Create registers a new session for the given identity.
func (s *Store) Create(userID uint, username string, role models.RoleName) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	sess := &Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		Username:     username,
		Role:         role,
		LoginAt:      now,
		LastActivity: now,
	}
	s.sessions[sess.ID] = sess
	return *sess
}

// Get returns the session without touching it.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Touch moves the session's last activity to now.
func (s *Store) Touch(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	sess.LastActivity = s.now()
	return *sess, true
}

// Destroy forgets the session. Unknown ids are ignored.
func (s *Store) Destroy(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Prune drops every session the guard considers expired and returns how many went.
func (s *Store) Prune(g Guard) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, sess := range s.sessions {
		if g.Check(*sess, now) == Expired {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
