package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"vaultbank/internal/ledger/events"
	"vaultbank/internal/ledger/models"
	"vaultbank/internal/ledger/ports"
	dErrors "vaultbank/pkg/domain-errors"
)

// CreateDeposit records a pending funding request. No balance moves until an
// admin approves it.
func (s *Service) CreateDeposit(ctx context.Context, userID int64, amount decimal.Decimal, currency string) (*models.Deposit, error) {
	start := time.Now()
	var created *models.Deposit

	err := func() error {
		if amount.Sign() <= 0 {
			return dErrors.Wrap(models.ErrInvalidAmount, dErrors.CodeValidation, "amount must be positive")
		}
		if currency == "" {
			currency = s.defaultCurrency
		}
		return s.store.RunInTx(ctx, func(tx ports.TxStore) error {
			if _, err := tx.UserByID(ctx, userID); err != nil {
				return translateNotFound(err, "user not found")
			}
			dep, err := tx.CreateDeposit(ctx, &models.Deposit{
				UserID:   userID,
				Amount:   amount,
				Currency: currency,
				Status:   models.DepositPending,
			})
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create deposit")
			}
			created = dep
			return nil
		})
	}()
	s.observe("create_deposit", start, err)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Name:      events.EventDepositCreated,
		UserID:    userID,
		DepositID: created.ID,
		Amount:    &created.Amount,
	})
	return created, nil
}

// ApproveDeposit completes a pending deposit and credits the owner's account
// by the deposit amount, both in one unit. Approving a non-pending deposit
// fails with no balance change.
func (s *Service) ApproveDeposit(ctx context.Context, depositID int64) (*models.Deposit, error) {
	start := time.Now()
	var (
		approved   *models.Deposit
		newBalance decimal.Decimal
	)

	err := s.store.RunInTx(ctx, func(tx ports.TxStore) error {
		dep, err := tx.DepositByID(ctx, depositID)
		if err != nil {
			return translateNotFound(err, "deposit not found")
		}
		if dep.Status != models.DepositPending {
			return dErrors.Wrap(models.ErrNotPending, dErrors.CodeConflict, "deposit is not pending")
		}

		acct, err := s.accountForUpdate(ctx, tx, dep.UserID, dep.Currency)
		if err != nil {
			return err
		}

		newBalance = acct.Balance.Add(dep.Amount)
		if err := tx.SetAccountBalance(ctx, acct.ID, newBalance); err != nil {
			return translateNotFound(err, "account not found")
		}
		if err := tx.SetDepositStatus(ctx, dep.ID, models.DepositCompleted); err != nil {
			return translateNotFound(err, "deposit not found")
		}

		_, err = tx.InsertTransaction(ctx, &models.Transaction{
			UserID:          dep.UserID,
			AccountID:       acct.ID,
			Amount:          dep.Amount,
			Type:            models.TransactionDeposit,
			Status:          models.TransactionCompleted,
			Description:     "Deposit approved",
			ReferenceNumber: reference("DEPOSIT", dep.UserID),
		})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record transaction")
		}

		dep.Status = models.DepositCompleted
		approved = dep
		return nil
	})
	s.observe("approve_deposit", start, err)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Name:       events.EventDepositApproved,
		UserID:     approved.UserID,
		DepositID:  approved.ID,
		Amount:     &approved.Amount,
		NewBalance: &newBalance,
	})
	return approved, nil
}

// Deposits lists a user's funding requests.
func (s *Service) Deposits(ctx context.Context, userID int64, limit, offset int) ([]*models.Deposit, error) {
	deps, err := s.store.ListDepositsByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list deposits")
	}
	return deps, nil
}
