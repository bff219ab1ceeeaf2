// Package resolver maps a verified token subject to a stored identity.
package resolver

import (
	"context"
	"errors"
	"log/slog"

	"vaultbank/internal/auth/models"
	"vaultbank/internal/auth/store"
	dErrors "vaultbank/pkg/domain-errors"
	"vaultbank/pkg/platform/sentinel"
)

// Resolver loads identities by canonical email and enforces the admin
// safeguard: the configured administrator email is always admin, even when
// the stored flag lags behind.
type Resolver struct {
	users      store.UserStore
	adminEmail string
	logger     *slog.Logger
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func New(users store.UserStore, adminEmail string, opts ...Option) *Resolver {
	r := &Resolver{
		users:      users,
		adminEmail: adminEmail,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve loads the identity for a verified claim. The admin flag correction
// is persisted before the identity is returned, so no caller can observe the
// admin email as non-admin.
func (r *Resolver) Resolve(ctx context.Context, email string) (*models.User, error) {
	user, err := r.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "could not validate credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}

	if user.Email == r.adminEmail && !user.IsAdmin {
		user.IsAdmin = true
		if err := r.users.Update(ctx, user); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist admin safeguard")
		}
		r.logger.WarnContext(ctx, "admin flag corrected on resolution",
			"user_id", user.ID,
			"email", user.Email,
		)
	}

	return user, nil
}

// AdminEmail exposes the configured administrator email for login responses.
func (r *Resolver) AdminEmail() string { return r.adminEmail }
