// Package store defines the user persistence contract shared by the memory
// and postgres implementations.
package store

import (
	"context"

	"vaultbank/internal/auth/models"
)

// UserStore persists identity records. Implementations return
// sentinel.ErrNotFound for missing rows and sentinel.ErrConflict when the
// email unique constraint is violated.
type UserStore interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}
