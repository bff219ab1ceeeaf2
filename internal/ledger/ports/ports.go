// Package ports defines the storage and notification contracts the ledger
// engine depends on. Interfaces live here because both the memory and
// postgres stores implement them and the service consumes them.
package ports

import (
	"context"

	"github.com/shopspring/decimal"

	authmodels "vaultbank/internal/auth/models"
	"vaultbank/internal/ledger/events"
	"vaultbank/internal/ledger/models"
)

// Notifier re-exports the event sink contract for service construction.
type Notifier = events.Notifier

// Reader holds the explicit query methods. No lazy relationship traversal:
// callers ask for exactly the records they need. Missing rows come back as
// sentinel.ErrNotFound.
type Reader interface {
	UserByID(ctx context.Context, id int64) (*authmodels.User, error)
	AccountByOwner(ctx context.Context, ownerID int64) (*models.Account, error)
	TransactionByID(ctx context.Context, id int64) (*models.Transaction, error)
	ListTransactionsByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.Transaction, error)
	DepositByID(ctx context.Context, id int64) (*models.Deposit, error)
	ListDepositsByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.Deposit, error)
	KYCSubmissionByID(ctx context.Context, id int64) (*models.KYCSubmission, error)
	ListKYCSubmissions(ctx context.Context, status models.KYCStatus, limit, offset int) ([]*models.KYCSubmission, error)
}

// TxStore is the write surface available inside a ledger unit. Reads through
// it observe the unit's own uncommitted writes; AccountByOwner additionally
// locks the row against concurrent units for the remainder of the unit.
type TxStore interface {
	Reader

	CreateAccount(ctx context.Context, account *models.Account) (*models.Account, error)
	SetAccountBalance(ctx context.Context, accountID int64, balance decimal.Decimal) error
	InsertTransaction(ctx context.Context, txn *models.Transaction) (*models.Transaction, error)
	SetTransactionStatus(ctx context.Context, id int64, status models.TransactionStatus) error
	CreateDeposit(ctx context.Context, deposit *models.Deposit) (*models.Deposit, error)
	SetDepositStatus(ctx context.Context, id int64, status models.DepositStatus) error
	CreateKYCSubmission(ctx context.Context, submission *models.KYCSubmission) (*models.KYCSubmission, error)
	UpdateKYCSubmission(ctx context.Context, submission *models.KYCSubmission) error
}

// Store is the ledger's transactional storage collaborator. RunInTx executes
// fn as one consistency unit: either every write in fn commits, or none do.
// Implementations must serialize conflicting units against the same account
// (row lock or coarse lock) so a read-check-write sequence cannot interleave
// with another writer.
type Store interface {
	Reader

	RunInTx(ctx context.Context, fn func(tx TxStore) error) error
}
