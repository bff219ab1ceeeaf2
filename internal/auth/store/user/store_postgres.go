package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"vaultbank/internal/auth/models"
	"vaultbank/pkg/platform/sentinel"
	txctx "vaultbank/pkg/platform/tx"
)

// PostgresStore persists users in PostgreSQL. When a transaction is present
// in the context it joins that transaction so the identity write commits with
// the surrounding ledger unit.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if tx, ok := txctx.From(ctx); ok {
		return tx
	}
	return s.db
}

const userColumns = `id, full_name, email, hashed_password, account_number, account_type,
	is_active, is_verified, is_admin, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	const query = `
INSERT INTO users (full_name, email, hashed_password, account_number, account_type, is_active, is_verified, is_admin)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_at`

	created := *user
	err := s.q(ctx).QueryRowContext(ctx, query,
		user.FullName,
		user.Email,
		user.HashedPassword,
		user.AccountNumber,
		user.AccountType,
		user.IsActive,
		user.IsVerified,
		user.IsAdmin,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, sentinel.ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &created, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return s.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (s *PostgresStore) scanOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := s.q(ctx).QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.HashedPassword,
		&user.AccountNumber,
		&user.AccountType,
		&user.IsActive,
		&user.IsVerified,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (s *PostgresStore) Update(ctx context.Context, user *models.User) error {
	const query = `
UPDATE users SET
	full_name = $2,
	email = $3,
	hashed_password = $4,
	account_number = $5,
	account_type = $6,
	is_active = $7,
	is_verified = $8,
	is_admin = $9,
	updated_at = now()
WHERE id = $1`

	res, err := s.q(ctx).ExecContext(ctx, query,
		user.ID,
		user.FullName,
		user.Email,
		user.HashedPassword,
		user.AccountNumber,
		user.AccountType,
		user.IsActive,
		user.IsVerified,
		user.IsAdmin,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
