package service

import (
	"context"
	"time"

	"vaultbank/internal/ledger/events"
	"vaultbank/internal/ledger/models"
	"vaultbank/internal/ledger/ports"
	dErrors "vaultbank/pkg/domain-errors"
)

// RetryTransaction moves a failed ledger entry back to pending for
// downstream reconciliation. It is a status-only reset: the original funds
// movement is never re-applied.
func (s *Service) RetryTransaction(ctx context.Context, transactionID int64) (*models.Transaction, error) {
	start := time.Now()
	var retried *models.Transaction

	err := s.store.RunInTx(ctx, func(tx ports.TxStore) error {
		txn, err := tx.TransactionByID(ctx, transactionID)
		if err != nil {
			return translateNotFound(err, "transaction not found")
		}
		if txn.Status != models.TransactionFailed {
			return dErrors.Wrap(models.ErrNotPending, dErrors.CodeConflict, "only failed transactions can be retried")
		}
		if err := tx.SetTransactionStatus(ctx, txn.ID, models.TransactionPending); err != nil {
			return translateNotFound(err, "transaction not found")
		}
		txn.Status = models.TransactionPending
		retried = txn
		return nil
	})
	s.observe("retry_transaction", start, err)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Name:          events.EventTransactionRetried,
		UserID:        retried.UserID,
		TransactionID: retried.ID,
	})
	return retried, nil
}
