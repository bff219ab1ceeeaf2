// Package models defines the ledger entities. Amounts are decimals, never
// floats; a transaction amount is always positive with direction encoded by
// its type.
package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Domain sentinels for ledger state facts. Services wrap these with coded
// errors; tests assert with errors.Is.
var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyReviewed   = errors.New("submission already reviewed")
	ErrNotPending        = errors.New("not in pending status")
)

type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionTransfer   TransactionType = "transfer"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCApproved KYCStatus = "approved"
	KYCRejected KYCStatus = "rejected"
)

type KYCDecision string

const (
	DecisionApprove KYCDecision = "approve"
	DecisionReject  KYCDecision = "reject"
)

func (d KYCDecision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

type DepositStatus string

const (
	DepositPending   DepositStatus = "pending"
	DepositCompleted DepositStatus = "completed"
	DepositRejected  DepositStatus = "rejected"
)

type AdjustmentType string

const (
	AdjustCredit AdjustmentType = "credit"
	AdjustDebit  AdjustmentType = "debit"
)

func (t AdjustmentType) Valid() bool {
	return t == AdjustCredit || t == AdjustDebit
}

// Account belongs to exactly one identity and is created lazily on the first
// funding operation. Balance never goes negative.
type Account struct {
	ID            int64           `json:"id"`
	OwnerID       int64           `json:"owner_id"`
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     *time.Time      `json:"updated_at,omitempty"`
}

// Transaction is an immutable ledger entry. Once completed, amount and type
// never change; only a failed entry may move back to pending on retry.
type Transaction struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	AccountID       int64             `json:"account_id"`
	Amount          decimal.Decimal   `json:"amount"`
	Type            TransactionType   `json:"transaction_type"`
	Status          TransactionStatus `json:"status"`
	Description     string            `json:"description,omitempty"`
	ReferenceNumber string            `json:"reference_number,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       *time.Time        `json:"updated_at,omitempty"`
}

// Deposit is a funding request. Approval moves it to completed and credits
// the owner's account exactly once.
type Deposit struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Status    DepositStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// KYCSubmission carries a document reference through the review cycle.
// ReviewedAt is set exactly once, on the first transition out of pending.
type KYCSubmission struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	DocumentType string     `json:"document_type"`
	DocumentRef  string     `json:"document_ref"`
	Status       KYCStatus  `json:"status"`
	Notes        string     `json:"notes,omitempty"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
}

// AccountNumberFor derives a deterministic account number from the owner id
// and the creation instant, for identities without a pre-assigned number.
func AccountNumberFor(ownerID int64, createdAt time.Time) string {
	return fmt.Sprintf("ACC_%d_%d", ownerID, createdAt.Unix())
}
