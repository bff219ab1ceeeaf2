// Package postgres implements the ledger store on PostgreSQL. A unit maps to
// a database transaction; the account row is taken FOR UPDATE so concurrent
// units against the same account serialize instead of losing updates.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	authmodels "vaultbank/internal/auth/models"
	userstore "vaultbank/internal/auth/store/user"
	"vaultbank/internal/ledger/models"
	"vaultbank/internal/ledger/ports"
	"vaultbank/pkg/platform/sentinel"
	txctx "vaultbank/pkg/platform/tx"
)

type Store struct {
	db    *sql.DB
	users *userstore.PostgresStore
}

func New(db *sql.DB) *Store {
	return &Store{db: db, users: userstore.NewPostgres(db)}
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// RunInTx executes fn inside a database transaction. Any error rolls the
// whole unit back.
func (s *Store) RunInTx(ctx context.Context, fn func(tx ports.TxStore) error) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger unit: %w", err)
	}

	unit := &txStore{q: dbTx, tx: dbTx, users: s.users, forUpdate: true}
	if err := fn(unit); err != nil {
		if rbErr := dbTx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback ledger unit: %w", rbErr))
		}
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit ledger unit: %w", err)
	}
	return nil
}

func (s *Store) reader() *txStore {
	return &txStore{q: s.db, users: s.users}
}

func (s *Store) UserByID(ctx context.Context, id int64) (*authmodels.User, error) {
	return s.reader().UserByID(ctx, id)
}

func (s *Store) AccountByOwner(ctx context.Context, ownerID int64) (*models.Account, error) {
	return s.reader().AccountByOwner(ctx, ownerID)
}

func (s *Store) TransactionByID(ctx context.Context, id int64) (*models.Transaction, error) {
	return s.reader().TransactionByID(ctx, id)
}

func (s *Store) ListTransactionsByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.Transaction, error) {
	return s.reader().ListTransactionsByUser(ctx, userID, limit, offset)
}

func (s *Store) DepositByID(ctx context.Context, id int64) (*models.Deposit, error) {
	return s.reader().DepositByID(ctx, id)
}

func (s *Store) ListDepositsByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.Deposit, error) {
	return s.reader().ListDepositsByUser(ctx, userID, limit, offset)
}

func (s *Store) KYCSubmissionByID(ctx context.Context, id int64) (*models.KYCSubmission, error) {
	return s.reader().KYCSubmissionByID(ctx, id)
}

func (s *Store) ListKYCSubmissions(ctx context.Context, status models.KYCStatus, limit, offset int) ([]*models.KYCSubmission, error) {
	return s.reader().ListKYCSubmissions(ctx, status, limit, offset)
}

// txStore runs queries against either the pool (plain reads) or an open
// transaction (inside a unit, with row locking enabled).
type txStore struct {
	q         querier
	tx        *sql.Tx
	users     *userstore.PostgresStore
	forUpdate bool
}

// UserByID delegates to the user store, joining the unit's transaction so the
// read observes the same snapshot as the ledger writes.
func (t *txStore) UserByID(ctx context.Context, id int64) (*authmodels.User, error) {
	if t.tx != nil {
		ctx = txctx.WithTx(ctx, t.tx)
	}
	return t.users.FindByID(ctx, id)
}

func (t *txStore) AccountByOwner(ctx context.Context, ownerID int64) (*models.Account, error) {
	query := `
SELECT id, owner_id, account_number, balance, currency, created_at, updated_at
FROM accounts WHERE owner_id = $1`
	if t.forUpdate {
		query += ` FOR UPDATE`
	}

	var acct models.Account
	err := t.q.QueryRowContext(ctx, query, ownerID).Scan(
		&acct.ID,
		&acct.OwnerID,
		&acct.AccountNumber,
		&acct.Balance,
		&acct.Currency,
		&acct.CreatedAt,
		&acct.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &acct, nil
}

func (t *txStore) CreateAccount(ctx context.Context, account *models.Account) (*models.Account, error) {
	const query = `
INSERT INTO accounts (owner_id, account_number, balance, currency)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at`

	created := *account
	err := t.q.QueryRowContext(ctx, query,
		account.OwnerID,
		account.AccountNumber,
		account.Balance,
		account.Currency,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return &created, nil
}

func (t *txStore) SetAccountBalance(ctx context.Context, accountID int64, balance decimal.Decimal) error {
	res, err := t.q.ExecContext(ctx,
		`UPDATE accounts SET balance = $2, updated_at = now() WHERE id = $1`,
		accountID, balance,
	)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	return requireRow(res, "update balance")
}

func (t *txStore) TransactionByID(ctx context.Context, id int64) (*models.Transaction, error) {
	const query = `
SELECT id, user_id, account_id, amount, transaction_type, status, description, reference_number, created_at, updated_at
FROM transactions WHERE id = $1`

	var txn models.Transaction
	err := t.q.QueryRowContext(ctx, query, id).Scan(
		&txn.ID,
		&txn.UserID,
		&txn.AccountID,
		&txn.Amount,
		&txn.Type,
		&txn.Status,
		&txn.Description,
		&txn.ReferenceNumber,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction: %w", err)
	}
	return &txn, nil
}

func (t *txStore) ListTransactionsByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.Transaction, error) {
	const query = `
SELECT id, user_id, account_id, amount, transaction_type, status, description, reference_number, created_at, updated_at
FROM transactions WHERE user_id = $1
ORDER BY id
LIMIT $2 OFFSET $3`

	rows, err := t.q.QueryContext(ctx, query, userID, nullableLimit(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []*models.Transaction
	for rows.Next() {
		var txn models.Transaction
		if err := rows.Scan(
			&txn.ID,
			&txn.UserID,
			&txn.AccountID,
			&txn.Amount,
			&txn.Type,
			&txn.Status,
			&txn.Description,
			&txn.ReferenceNumber,
			&txn.CreatedAt,
			&txn.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, &txn)
	}
	return out, rows.Err()
}

func (t *txStore) InsertTransaction(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	const query = `
INSERT INTO transactions (user_id, account_id, amount, transaction_type, status, description, reference_number)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at`

	created := *txn
	err := t.q.QueryRowContext(ctx, query,
		txn.UserID,
		txn.AccountID,
		txn.Amount,
		txn.Type,
		txn.Status,
		txn.Description,
		txn.ReferenceNumber,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	return &created, nil
}

func (t *txStore) SetTransactionStatus(ctx context.Context, id int64, status models.TransactionStatus) error {
	res, err := t.q.ExecContext(ctx,
		`UPDATE transactions SET status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	return requireRow(res, "update transaction status")
}

func (t *txStore) DepositByID(ctx context.Context, id int64) (*models.Deposit, error) {
	query := `SELECT id, user_id, amount, currency, status, created_at FROM deposits WHERE id = $1`
	if t.forUpdate {
		query += ` FOR UPDATE`
	}

	var dep models.Deposit
	err := t.q.QueryRowContext(ctx, query, id).Scan(
		&dep.ID,
		&dep.UserID,
		&dep.Amount,
		&dep.Currency,
		&dep.Status,
		&dep.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find deposit: %w", err)
	}
	return &dep, nil
}

func (t *txStore) ListDepositsByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.Deposit, error) {
	const query = `
SELECT id, user_id, amount, currency, status, created_at
FROM deposits WHERE user_id = $1
ORDER BY id
LIMIT $2 OFFSET $3`

	rows, err := t.q.QueryContext(ctx, query, userID, nullableLimit(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list deposits: %w", err)
	}
	defer rows.Close()

	var out []*models.Deposit
	for rows.Next() {
		var dep models.Deposit
		if err := rows.Scan(&dep.ID, &dep.UserID, &dep.Amount, &dep.Currency, &dep.Status, &dep.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan deposit: %w", err)
		}
		out = append(out, &dep)
	}
	return out, rows.Err()
}

func (t *txStore) CreateDeposit(ctx context.Context, deposit *models.Deposit) (*models.Deposit, error) {
	const query = `
INSERT INTO deposits (user_id, amount, currency, status)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at`

	created := *deposit
	err := t.q.QueryRowContext(ctx, query,
		deposit.UserID,
		deposit.Amount,
		deposit.Currency,
		deposit.Status,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create deposit: %w", err)
	}
	return &created, nil
}

func (t *txStore) SetDepositStatus(ctx context.Context, id int64, status models.DepositStatus) error {
	res, err := t.q.ExecContext(ctx,
		`UPDATE deposits SET status = $2 WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("update deposit status: %w", err)
	}
	return requireRow(res, "update deposit status")
}

func (t *txStore) KYCSubmissionByID(ctx context.Context, id int64) (*models.KYCSubmission, error) {
	query := `
SELECT id, user_id, document_type, document_ref, status, notes, submitted_at, reviewed_at
FROM kyc_submissions WHERE id = $1`
	if t.forUpdate {
		query += ` FOR UPDATE`
	}

	var sub models.KYCSubmission
	err := t.q.QueryRowContext(ctx, query, id).Scan(
		&sub.ID,
		&sub.UserID,
		&sub.DocumentType,
		&sub.DocumentRef,
		&sub.Status,
		&sub.Notes,
		&sub.SubmittedAt,
		&sub.ReviewedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find kyc submission: %w", err)
	}
	return &sub, nil
}

func (t *txStore) ListKYCSubmissions(ctx context.Context, status models.KYCStatus, limit, offset int) ([]*models.KYCSubmission, error) {
	const query = `
SELECT id, user_id, document_type, document_ref, status, notes, submitted_at, reviewed_at
FROM kyc_submissions
WHERE ($1 = '' OR status = $1)
ORDER BY id
LIMIT $2 OFFSET $3`

	rows, err := t.q.QueryContext(ctx, query, string(status), nullableLimit(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list kyc submissions: %w", err)
	}
	defer rows.Close()

	var out []*models.KYCSubmission
	for rows.Next() {
		var sub models.KYCSubmission
		if err := rows.Scan(
			&sub.ID,
			&sub.UserID,
			&sub.DocumentType,
			&sub.DocumentRef,
			&sub.Status,
			&sub.Notes,
			&sub.SubmittedAt,
			&sub.ReviewedAt,
		); err != nil {
			return nil, fmt.Errorf("scan kyc submission: %w", err)
		}
		out = append(out, &sub)
	}
	return out, rows.Err()
}

func (t *txStore) CreateKYCSubmission(ctx context.Context, submission *models.KYCSubmission) (*models.KYCSubmission, error) {
	const query = `
INSERT INTO kyc_submissions (user_id, document_type, document_ref, status, notes)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, submitted_at`

	created := *submission
	err := t.q.QueryRowContext(ctx, query,
		submission.UserID,
		submission.DocumentType,
		submission.DocumentRef,
		submission.Status,
		submission.Notes,
	).Scan(&created.ID, &created.SubmittedAt)
	if err != nil {
		return nil, fmt.Errorf("create kyc submission: %w", err)
	}
	return &created, nil
}

func (t *txStore) UpdateKYCSubmission(ctx context.Context, submission *models.KYCSubmission) error {
	res, err := t.q.ExecContext(ctx,
		`UPDATE kyc_submissions SET status = $2, notes = $3, reviewed_at = $4 WHERE id = $1`,
		submission.ID,
		submission.Status,
		submission.Notes,
		submission.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("update kyc submission: %w", err)
	}
	return requireRow(res, "update kyc submission")
}

func requireRow(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullableLimit(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
