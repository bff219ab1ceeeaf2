package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"vaultbank/internal/auth/models"
	"vaultbank/internal/auth/resolver"
	userstore "vaultbank/internal/auth/store/user"
	"vaultbank/internal/auth/token"
	dErrors "vaultbank/pkg/domain-errors"
)

const adminEmail = "admin@admin.com"

func newTestService(t *testing.T) (*Service, *userstore.InMemoryUserStore) {
	t.Helper()
	users := userstore.New()
	res := resolver.New(users, adminEmail)
	tokens := token.NewService("test-signing-key", "vaultbank", 30*time.Minute)
	return New(users, res, tokens), users
}

func seedUser(t *testing.T, users *userstore.InMemoryUserStore, email, password string) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	created, err := users.Create(context.Background(), &models.User{
		Email:          email,
		HashedPassword: string(hashed),
		IsActive:       true,
	})
	require.NoError(t, err)
	return created
}

func TestLogin(t *testing.T) {
	svc, users := newTestService(t)
	seedUser(t, users, "user@example.com", "correct-horse")

	result, err := svc.Login(context.Background(), "user@example.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.True(t, result.ExpiresAt.After(time.Now()))
	assert.Equal(t, "user@example.com", result.User.Email)
}

// TestLoginFailuresIndistinguishable verifies unknown email and wrong
// password produce the same caller-visible error.
func TestLoginFailuresIndistinguishable(t *testing.T) {
	svc, users := newTestService(t)
	seedUser(t, users, "user@example.com", "correct-horse")

	_, errUnknown := svc.Login(context.Background(), "ghost@example.com", "whatever")
	_, errWrongPw := svc.Login(context.Background(), "user@example.com", "wrong")

	require.Error(t, errUnknown)
	require.Error(t, errWrongPw)
	assert.True(t, dErrors.HasCode(errUnknown, dErrors.CodeUnauthorized))
	assert.True(t, dErrors.HasCode(errWrongPw, dErrors.CodeUnauthorized))
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
}

// TestLoginAppliesAdminSafeguard verifies a login as the configured admin
// email corrects and persists the admin flag before issuing the token.
func TestLoginAppliesAdminSafeguard(t *testing.T) {
	svc, users := newTestService(t)
	created := seedUser(t, users, adminEmail, "correct-horse")
	require.False(t, created.IsAdmin)

	result, err := svc.Login(context.Background(), adminEmail, "correct-horse")
	require.NoError(t, err)
	assert.True(t, result.User.IsAdmin)

	stored, err := users.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin)
}

func TestRegister(t *testing.T) {
	svc, users := newTestService(t)

	result, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "new@example.com",
		FullName: "New User",
		Password: "long-enough",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.False(t, result.User.IsActive, "registration must not activate")
	assert.False(t, result.User.IsVerified)
	assert.Equal(t, "Checking", result.User.AccountType)

	stored, err := users.FindByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "long-enough", stored.HashedPassword)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.HashedPassword), []byte("long-enough")))
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register(context.Background(), RegisterRequest{Password: "long-enough"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = svc.Register(context.Background(), RegisterRequest{Email: "a@example.com", Password: "short"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

// TestUpdateUser verifies the allow-listed patch activates an identity and
// leaves unpatched fields alone.
func TestUpdateUser(t *testing.T) {
	svc, users := newTestService(t)
	created := seedUser(t, users, "user@example.com", "correct-horse")
	created.IsActive = false
	require.NoError(t, users.Update(context.Background(), created))

	active := true
	updated, err := svc.UpdateUser(context.Background(), created.ID, models.UserUpdate{IsActive: &active})
	require.NoError(t, err)
	assert.True(t, updated.IsActive)
	assert.Equal(t, "user@example.com", updated.Email)

	stored, err := users.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
}

func TestUpdateUserNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UpdateUser(context.Background(), 404, models.UserUpdate{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestUpdateUserEmailCollision(t *testing.T) {
	svc, users := newTestService(t)
	seedUser(t, users, "taken@example.com", "correct-horse")
	second := seedUser(t, users, "second@example.com", "correct-horse")

	taken := "taken@example.com"
	_, err := svc.UpdateUser(context.Background(), second.ID, models.UserUpdate{Email: &taken})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)

	req := RegisterRequest{Email: "dup@example.com", Password: "long-enough"}
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}
