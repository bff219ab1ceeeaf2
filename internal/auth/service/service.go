// Package service implements login and registration on top of the user
// store, the identity resolver, and the token issuer.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"vaultbank/internal/auth/models"
	"vaultbank/internal/auth/resolver"
	"vaultbank/internal/auth/store"
	"vaultbank/internal/auth/token"
	dErrors "vaultbank/pkg/domain-errors"
	"vaultbank/pkg/platform/sentinel"
)

const minPasswordLength = 8

type Service struct {
	users    store.UserStore
	resolver *resolver.Resolver
	tokens   *token.Service
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(users store.UserStore, res *resolver.Resolver, tokens *token.Service, opts ...Option) *Service {
	svc := &Service{
		users:    users,
		resolver: res,
		tokens:   tokens,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// LoginResult carries the minted session token and the resolved identity.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// Login verifies the password, applies the admin safeguard through the
// resolver, and issues an access token. Credential failures are deliberately
// indistinguishable between unknown email and wrong password.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "incorrect email or password")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "login failed", "email", email)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "incorrect email or password")
	}

	// Safeguard runs before issuance so the token never represents a
	// not-yet-corrected admin identity.
	user, err = s.resolver.Resolve(ctx, user.Email)
	if err != nil {
		return nil, err
	}

	signed, expiresAt, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	return &LoginResult{Token: signed, ExpiresAt: expiresAt, User: user}, nil
}

// RegisterRequest is the allow-listed registration payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// Register creates an inactive, unverified user and auto-issues a token.
// The identity stays inactive for privileged endpoints until an admin
// activates it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*LoginResult, error) {
	if req.Email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	user, err := s.users.Create(ctx, &models.User{
		FullName:       req.FullName,
		Email:          req.Email,
		HashedPassword: string(hashed),
		AccountType:    "Checking",
		IsActive:       false,
		IsVerified:     false,
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	signed, expiresAt, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "email", user.Email)
	return &LoginResult{Token: signed, ExpiresAt: expiresAt, User: user}, nil
}

// User loads a stored identity by id.
func (s *Service) User(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

// UpdateUser applies an allow-listed patch to a stored identity. Activation
// and admin promotion flow through here.
func (s *Service) UpdateUser(ctx context.Context, id int64, patch models.UserUpdate) (*models.User, error) {
	user, err := s.User(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(user)
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}

	s.logger.InfoContext(ctx, "user updated", "user_id", user.ID)
	return user, nil
}
