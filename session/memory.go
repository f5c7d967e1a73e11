package session

import (
	"sync"

	"github.com/ecopoints/ecopoints/models"
)

// MemoryStore is an in-process Store used by tests and by demo mode, where
// touching the operating system keyring would be unwanted.
type MemoryStore struct {
	mu          sync.Mutex
	token       string
	user        *models.User
	hasUser     bool
	createdType bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryStore) User() (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasUser {
		return nil, nil
	}
	u := *s.user
	return &u, nil
}

func (s *MemoryStore) Set(token string, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	if user != nil {
		u := *user
		s.user = &u
		s.hasUser = true
	} else {
		s.user = nil
		s.hasUser = false
	}
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	s.hasUser = false
	s.createdType = false
	return nil
}

func (s *MemoryStore) HasCreatedActivityType() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createdType
}

func (s *MemoryStore) MarkActivityTypeCreated() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createdType = true
	return nil
}
