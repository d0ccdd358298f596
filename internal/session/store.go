package session

import (
	"sync"
	"time"
)

// Kind identifies which interactive dialog owns a session.
type Kind string

const (
	KindOrganize Kind = "organize"
	KindBulk     Kind = "bulk"
)

// Session is transient per-user dialog state. A session is only valid while
// its expiry lies in the future; expired sessions are evicted lazily on
// access.
type Session struct {
	OwnerID   int64
	Kind      Kind
	Step      string
	Data      map[string]any
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store holds keyed, TTL-expiring session state for interactive dialogs.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[int64]*Session
	now      func() time.Time
}

// NewStore creates a session store with the given time-to-live.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		sessions: make(map[int64]*Session),
		now:      time.Now,
	}
}

// Get returns the owner's session, or nil when none exists. A session whose
// expiry has passed is evicted and reported absent.
func (s *Store) Get(ownerID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[ownerID]
	if !ok {
		return nil
	}
	if !s.now().Before(sess.ExpiresAt) {
		delete(s.sessions, ownerID)
		return nil
	}
	return sess
}

// Create starts a new session for the owner, replacing any existing one.
func (s *Store) Create(ownerID int64, kind Kind, step string, data map[string]any) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if data == nil {
		data = make(map[string]any)
	}
	now := s.now()
	sess := &Session{
		OwnerID:   ownerID,
		Kind:      kind,
		Step:      step,
		Data:      data,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.sessions[ownerID] = sess
	return sess
}

// Update advances the owner's session to a new step, merging data into the
// existing step data and refreshing the expiry. Returns nil when no live
// session exists.
func (s *Store) Update(ownerID int64, step string, data map[string]any) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[ownerID]
	if !ok {
		return nil
	}
	if !s.now().Before(sess.ExpiresAt) {
		delete(s.sessions, ownerID)
		return nil
	}
	if step != "" {
		sess.Step = step
	}
	for k, v := range data {
		sess.Data[k] = v
	}
	sess.ExpiresAt = s.now().Add(s.ttl)
	return sess
}

// Clear removes the owner's session if present.
func (s *Store) Clear(ownerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, ownerID)
}

// SweepExpired removes every expired session and returns the count removed.
// Lazy eviction on Get keeps the store correct without this; the sweep only
// reclaims memory for abandoned dialogs.
func (s *Store) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	now := s.now()
	for id, sess := range s.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
