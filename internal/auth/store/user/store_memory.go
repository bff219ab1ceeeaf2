package user

import (
	"context"
	"sync"
	"time"

	"vaultbank/internal/auth/models"
	"vaultbank/pkg/platform/sentinel"
)

// InMemoryUserStore keeps the initial implementation lightweight and testable.
// It intentionally favors clarity over performance.
type InMemoryUserStore struct {
	mu      sync.RWMutex
	nextID  int64
	users   map[int64]*models.User
	byEmail map[string]int64
}

func New() *InMemoryUserStore {
	return &InMemoryUserStore{
		users:   make(map[int64]*models.User),
		byEmail: make(map[string]int64),
	}
}

func (s *InMemoryUserStore) Create(_ context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return nil, sentinel.ErrConflict
	}

	s.nextID++
	stored := *user
	stored.ID = s.nextID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	s.users[stored.ID] = &stored
	s.byEmail[stored.Email] = stored.ID

	cp := stored
	return &cp, nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[id]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byEmail[email]; ok {
		cp := *s.users[id]
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryUserStore) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if existing.Email != user.Email {
		if _, taken := s.byEmail[user.Email]; taken {
			return sentinel.ErrConflict
		}
		delete(s.byEmail, existing.Email)
		s.byEmail[user.Email] = user.ID
	}

	now := time.Now()
	stored := *user
	stored.UpdatedAt = &now
	s.users[user.ID] = &stored
	return nil
}
