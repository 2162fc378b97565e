// Package session orchestrates one student's planning session: intake,
// plan generation and rescheduling, and task status tracking.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/aura-planner/internal/plan"
)

// ErrSessionNotFound is returned for an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// Session is the in-memory state of one user session.
type Session struct {
	ID          string           `json:"id"`
	Exams       []plan.Exam      `json:"exams"`
	Subjects    []plan.Subject   `json:"subjects"`
	Preferences plan.Preferences `json:"preferences"`
	Plan        *plan.Plan       `json:"plan,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// Clone returns a deep copy so callers never share storage with the store.
func (s Session) Clone() Session {
	out := s
	out.Exams = append([]plan.Exam(nil), s.Exams...)
	out.Subjects = plan.CloneSubjects(s.Subjects)
	if s.Plan != nil {
		p := s.Plan.Clone()
		out.Plan = &p
	}
	return out
}

// Store holds sessions for the lifetime of the process.
//
// Update applies fn to a copy of the session and stores the result; calls for
// the same session do not interleave. An error from fn leaves the session as
// it was.
type Store interface {
	Create(s Session) (string, error)
	Get(id string) (*Session, error)
	Save(s *Session) error
	Update(id string, fn func(*Session) error) (*Session, error)
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
	}
}

func (m *MemoryStore) Create(s Session) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s = s.Clone()
	s.ID = uuid.NewString()
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	m.sessions[s.ID] = &s
	return s.ID, nil
}

func (m *MemoryStore) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	out := s.Clone()
	return &out, nil
}

func (m *MemoryStore) Save(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, s.ID)
	}
	stored := s.Clone()
	stored.UpdatedAt = time.Now()
	m.sessions[s.ID] = &stored
	return nil
}

func (m *MemoryStore) Update(id string, fn func(*Session) error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	work := s.Clone()
	if err := fn(&work); err != nil {
		return nil, err
	}
	work.ID = id
	work.CreatedAt = s.CreatedAt
	work.UpdatedAt = time.Now()
	m.sessions[id] = &work

	out := work.Clone()
	return &out, nil
}

// Len returns the number of sessions held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
