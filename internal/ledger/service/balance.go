package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vaultbank/internal/ledger/events"
	"vaultbank/internal/ledger/models"
	"vaultbank/internal/ledger/ports"
	dErrors "vaultbank/pkg/domain-errors"
	"vaultbank/pkg/platform/sentinel"
)

// Fund credits a user's account, creating the account on first use. The
// balance increment and the completed deposit transaction commit as one
// unit. Repeated calls accumulate; there is no implicit idempotence.
func (s *Service) Fund(ctx context.Context, userID int64, amount decimal.Decimal, currency, description string) (decimal.Decimal, error) {
	start := time.Now()
	var newBalance decimal.Decimal

	err := func() error {
		if amount.Sign() <= 0 {
			return dErrors.Wrap(models.ErrInvalidAmount, dErrors.CodeValidation, "amount must be positive")
		}
		if description == "" {
			description = "Admin fund"
		}

		return s.store.RunInTx(ctx, func(tx ports.TxStore) error {
			acct, err := s.accountForUpdate(ctx, tx, userID, currency)
			if err != nil {
				return err
			}

			newBalance = acct.Balance.Add(amount)
			if err := tx.SetAccountBalance(ctx, acct.ID, newBalance); err != nil {
				return translateNotFound(err, "account not found")
			}

			_, err = tx.InsertTransaction(ctx, &models.Transaction{
				UserID:          userID,
				AccountID:       acct.ID,
				Amount:          amount,
				Type:            models.TransactionDeposit,
				Status:          models.TransactionCompleted,
				Description:     description,
				ReferenceNumber: reference("ADMIN_FUND", userID),
			})
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record transaction")
			}
			return nil
		})
	}()
	s.observe("fund", start, err)
	if err != nil {
		return decimal.Decimal{}, err
	}

	s.publish(ctx, events.Event{
		Name:       events.EventUserFunded,
		UserID:     userID,
		Amount:     &amount,
		NewBalance: &newBalance,
	})
	return newBalance, nil
}

// AdjustBalance applies an admin credit or debit. Debits beyond the current
// balance fail with no state change.
func (s *Service) AdjustBalance(ctx context.Context, userID int64, amount decimal.Decimal, op models.AdjustmentType, currency, description string) (decimal.Decimal, error) {
	start := time.Now()
	var newBalance decimal.Decimal

	err := func() error {
		if amount.Sign() <= 0 {
			return dErrors.Wrap(models.ErrInvalidAmount, dErrors.CodeValidation, "amount must be positive")
		}
		if !op.Valid() {
			return dErrors.New(dErrors.CodeValidation, "operation_type must be 'credit' or 'debit'")
		}
		if description == "" {
			description = "Balance adjustment"
		}

		return s.store.RunInTx(ctx, func(tx ports.TxStore) error {
			acct, err := s.accountForUpdate(ctx, tx, userID, currency)
			if err != nil {
				return err
			}

			txnType := models.TransactionDeposit
			if op == models.AdjustCredit {
				newBalance = acct.Balance.Add(amount)
			} else {
				if acct.Balance.LessThan(amount) {
					return dErrors.Wrap(models.ErrInsufficientFunds, dErrors.CodeValidation, "insufficient balance for debit")
				}
				newBalance = acct.Balance.Sub(amount)
				txnType = models.TransactionWithdrawal
			}

			if err := tx.SetAccountBalance(ctx, acct.ID, newBalance); err != nil {
				return translateNotFound(err, "account not found")
			}

			_, err = tx.InsertTransaction(ctx, &models.Transaction{
				UserID:          userID,
				AccountID:       acct.ID,
				Amount:          amount,
				Type:            txnType,
				Status:          models.TransactionCompleted,
				Description:     "Admin " + description,
				ReferenceNumber: reference("ADMIN_ADJ", userID),
			})
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record transaction")
			}
			return nil
		})
	}()
	s.observe("adjust_balance", start, err)
	if err != nil {
		return decimal.Decimal{}, err
	}

	s.publish(ctx, events.Event{
		Name:       events.EventBalanceAdjusted,
		UserID:     userID,
		Amount:     &amount,
		NewBalance: &newBalance,
	})
	return newBalance, nil
}

// accountForUpdate loads the caller's account under the unit's lock,
// creating it lazily with a zero balance when the identity has none yet.
func (s *Service) accountForUpdate(ctx context.Context, tx ports.TxStore, userID int64, currency string) (*models.Account, error) {
	user, err := tx.UserByID(ctx, userID)
	if err != nil {
		return nil, translateNotFound(err, "user not found")
	}

	acct, err := tx.AccountByOwner(ctx, userID)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}

	if currency == "" {
		currency = s.defaultCurrency
	}
	number := models.AccountNumberFor(userID, time.Now())
	if user.AccountNumber != nil && *user.AccountNumber != "" {
		number = *user.AccountNumber
	}

	created, err := tx.CreateAccount(ctx, &models.Account{
		OwnerID:       userID,
		AccountNumber: number,
		Balance:       decimal.Zero,
		Currency:      currency,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}
	return created, nil
}

func reference(prefix string, userID int64) string {
	return fmt.Sprintf("%s_%d_%s", prefix, userID, uuid.NewString()[:8])
}
