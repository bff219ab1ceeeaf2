package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"vaultbank/internal/auth/models"
	"vaultbank/pkg/platform/sentinel"
)

type UserStoreSuite struct {
	suite.Suite
	store *InMemoryUserStore
	ctx   context.Context
}

func (s *UserStoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

func TestUserStoreSuite(t *testing.T) {
	suite.Run(t, new(UserStoreSuite))
}

func (s *UserStoreSuite) newUser(email string) *models.User {
	return &models.User{
		FullName:       "Test User",
		Email:          email,
		HashedPassword: "hashed",
		AccountType:    "Checking",
	}
}

// TestCreationAndLookups verifies the store assigns ids and retrieves by both
// keys.
func (s *UserStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds by ID", func() {
		created, err := s.store.Create(s.ctx, s.newUser("a@example.com"))
		s.Require().NoError(err)
		s.NotZero(created.ID)
		s.False(created.CreatedAt.IsZero())

		found, err := s.store.FindByID(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal("a@example.com", found.Email)
	})

	s.Run("finds by email", func() {
		created, err := s.store.Create(s.ctx, s.newUser("b@example.com"))
		s.Require().NoError(err)

		found, err := s.store.FindByEmail(s.ctx, "b@example.com")
		s.Require().NoError(err)
		s.Equal(created.ID, found.ID)
	})

	s.Run("returns ErrNotFound for unknown keys", func() {
		_, err := s.store.FindByID(s.ctx, 404)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		_, err = s.store.FindByEmail(s.ctx, "nobody@example.com")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestEmailUniqueness verifies duplicate registration conflicts.
func (s *UserStoreSuite) TestEmailUniqueness() {
	_, err := s.store.Create(s.ctx, s.newUser("dup@example.com"))
	s.Require().NoError(err)

	_, err = s.store.Create(s.ctx, s.newUser("dup@example.com"))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

// TestUpdates verifies flag changes persist and the email index follows
// renames.
func (s *UserStoreSuite) TestUpdates() {
	s.Run("persists flag changes", func() {
		created, err := s.store.Create(s.ctx, s.newUser("flags@example.com"))
		s.Require().NoError(err)

		created.IsActive = true
		created.IsAdmin = true
		s.Require().NoError(s.store.Update(s.ctx, created))

		found, err := s.store.FindByID(s.ctx, created.ID)
		s.Require().NoError(err)
		s.True(found.IsActive)
		s.True(found.IsAdmin)
		s.NotNil(found.UpdatedAt)
	})

	s.Run("reindexes on email change", func() {
		created, err := s.store.Create(s.ctx, s.newUser("old@example.com"))
		s.Require().NoError(err)

		created.Email = "new@example.com"
		s.Require().NoError(s.store.Update(s.ctx, created))

		_, err = s.store.FindByEmail(s.ctx, "old@example.com")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		found, err := s.store.FindByEmail(s.ctx, "new@example.com")
		s.Require().NoError(err)
		s.Equal(created.ID, found.ID)
	})

	s.Run("rejects email collision on update", func() {
		first, err := s.store.Create(s.ctx, s.newUser("one@example.com"))
		s.Require().NoError(err)
		_, err = s.store.Create(s.ctx, s.newUser("two@example.com"))
		s.Require().NoError(err)

		first.Email = "two@example.com"
		s.Require().ErrorIs(s.store.Update(s.ctx, first), sentinel.ErrConflict)
	})

	s.Run("returns ErrNotFound for unknown user", func() {
		ghost := s.newUser("ghost@example.com")
		ghost.ID = 404
		s.Require().ErrorIs(s.store.Update(s.ctx, ghost), sentinel.ErrNotFound)
	})
}

// TestCopySemantics verifies mutating a returned user does not leak into the
// store.
func (s *UserStoreSuite) TestCopySemantics() {
	created, err := s.store.Create(s.ctx, s.newUser("copy@example.com"))
	s.Require().NoError(err)

	found, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	found.IsAdmin = true

	again, err := s.store.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.False(again.IsAdmin)
}
