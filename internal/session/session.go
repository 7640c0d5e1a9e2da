// Package session persists the signed-in user's tokens between runs.
package session

import (
	"sync"
	"time"

	"welfaredesk/internal/model"
)

// Lifetime is how long a stored session is honoured after it was written.
const Lifetime = 7 * 24 * time.Hour

// Session holds the bearer tokens and the minimal user profile.
type Session struct {
	Access    string     `json:"access"`
	Refresh   string     `json:"refresh"`
	User      model.User `json:"user"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// New stamps a session with the standard lifetime starting at now.
func New(access, refresh string, user model.User, now time.Time) Session {
	return Session{
		Access:    access,
		Refresh:   refresh,
		User:      user,
		ExpiresAt: now.Add(Lifetime),
	}
}

// Expired reports whether the session should no longer be used.
func (s Session) Expired(now time.Time) bool {
	return s.ExpiresAt.IsZero() || !now.Before(s.ExpiresAt)
}

// Store loads, saves and clears the persisted session.
// Load returns (nil, nil) when nothing usable is stored.
type Store interface {
	Load() (*Session, error)
	Save(Session) error
	Clear() error
}

// MemoryStore keeps the session in process memory only.
type MemoryStore struct {
	mu      sync.Mutex
	current *Session
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, nil
	}
	if m.current.Expired(m.now()) {
		m.current = nil
		return nil, nil
	}
	s := *m.current
	return &s, nil
}

func (m *MemoryStore) Save(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = &s
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	return nil
}
