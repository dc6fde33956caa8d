package store

import (
	"context"
	"sync"

	"github.com/Jampi276/pymescore-ai/internal/models"
)

// InMemoryUserStore is a thread-safe, in-memory UserStore backing.
type InMemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

// NewInMemoryUserStore creates an empty in-memory user store.
func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{users: make(map[string]*models.User)}
}

// Get returns the account for the email, or ErrUserNotFound.
func (s *InMemoryUserStore) Get(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

// Put stores the account, replacing any existing record for the same email.
func (s *InMemoryUserStore) Put(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *user
	s.users[user.Email] = &copied
	return nil
}

// Delete removes the account. Deleting an absent account succeeds.
func (s *InMemoryUserStore) Delete(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, email)
	return nil
}

var _ UserStore = (*InMemoryUserStore)(nil)
