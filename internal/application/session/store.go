package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/travel-support/internal/domain/form"
)

// Store holds the open sessions of every client
type Store struct {
	limits Limits
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithClock replaces time.Now
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty session store
func NewStore(limits Limits, opts ...StoreOption) *Store {
	s := &Store{
		limits:   limits,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open starts a session for a form
func (s *Store) Open(schema *form.Schema) *Session {
	sess := newSession(uuid.NewString(), schema, s.limits, s.now)

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	return sess
}

// Get returns an open session
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Delete closes a session. Results of calls still in flight for it are dropped.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// Sweep closes sessions idle for longer than ttl and returns how many were closed.
// Sessions with a submission in progress are kept.
func (s *Store) Sweep(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	closed := 0
	for id, sess := range s.sessions {
		last, idle := sess.idleSince()
		if idle && last.Before(cutoff) {
			delete(s.sessions, id)
			closed++
		}
	}
	return closed
}

// Len returns the number of open sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
