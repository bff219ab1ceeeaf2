package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	authmodels "vaultbank/internal/auth/models"
	userstore "vaultbank/internal/auth/store/user"
	"vaultbank/internal/ledger/models"
	"vaultbank/internal/ledger/ports"
	"vaultbank/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	ctx    context.Context
	store  *Store
	userID int64
}

func (s *MemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	users := userstore.New()
	s.store = New(users)

	created, err := users.Create(s.ctx, &authmodels.User{Email: "owner@example.com"})
	s.Require().NoError(err)
	s.userID = created.ID
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) createAccount(balance string) *models.Account {
	bal, err := decimal.NewFromString(balance)
	s.Require().NoError(err)

	var acct *models.Account
	s.Require().NoError(s.store.RunInTx(s.ctx, func(tx ports.TxStore) error {
		created, err := tx.CreateAccount(s.ctx, &models.Account{
			OwnerID:       s.userID,
			AccountNumber: "ACC_TEST",
			Balance:       bal,
			Currency:      "USD",
		})
		if err != nil {
			return err
		}
		acct = created
		return nil
	}))
	return acct
}

// TestUnitCommit verifies writes land only after the unit returns nil.
func (s *MemoryStoreSuite) TestUnitCommit() {
	acct := s.createAccount("100")

	found, err := s.store.AccountByOwner(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Equal(acct.ID, found.ID)
	s.True(found.Balance.Equal(decimal.NewFromInt(100)))
}

// TestUnitRollback verifies a failed unit leaves no partial writes, even when
// some writes succeeded before the failure.
func (s *MemoryStoreSuite) TestUnitRollback() {
	acct := s.createAccount("100")
	boom := errors.New("boom")

	err := s.store.RunInTx(s.ctx, func(tx ports.TxStore) error {
		if err := tx.SetAccountBalance(s.ctx, acct.ID, decimal.NewFromInt(500)); err != nil {
			return err
		}
		if _, err := tx.InsertTransaction(s.ctx, &models.Transaction{
			UserID:    s.userID,
			AccountID: acct.ID,
			Amount:    decimal.NewFromInt(400),
			Type:      models.TransactionDeposit,
			Status:    models.TransactionCompleted,
		}); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	found, err := s.store.AccountByOwner(s.ctx, s.userID)
	s.Require().NoError(err)
	s.True(found.Balance.Equal(decimal.NewFromInt(100)), "balance write must be discarded")

	txns, err := s.store.ListTransactionsByUser(s.ctx, s.userID, 0, 0)
	s.Require().NoError(err)
	s.Empty(txns, "transaction insert must be discarded")
}

// TestUnitReadsOwnWrites verifies staged writes are visible inside the unit.
func (s *MemoryStoreSuite) TestUnitReadsOwnWrites() {
	err := s.store.RunInTx(s.ctx, func(tx ports.TxStore) error {
		created, err := tx.CreateAccount(s.ctx, &models.Account{
			OwnerID:       s.userID,
			AccountNumber: "ACC_STAGED",
			Balance:       decimal.Zero,
		})
		s.Require().NoError(err)

		found, err := tx.AccountByOwner(s.ctx, s.userID)
		s.Require().NoError(err)
		s.Equal(created.ID, found.ID)

		s.Require().NoError(tx.SetAccountBalance(s.ctx, created.ID, decimal.NewFromInt(42)))
		found, err = tx.AccountByOwner(s.ctx, s.userID)
		s.Require().NoError(err)
		s.True(found.Balance.Equal(decimal.NewFromInt(42)))
		return nil
	})
	s.Require().NoError(err)
}

// TestNotFound verifies lookups surface the store sentinel.
func (s *MemoryStoreSuite) TestNotFound() {
	_, err := s.store.AccountByOwner(s.ctx, 404)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.TransactionByID(s.ctx, 404)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.DepositByID(s.ctx, 404)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.KYCSubmissionByID(s.ctx, 404)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	err = s.store.RunInTx(s.ctx, func(tx ports.TxStore) error {
		return tx.SetAccountBalance(s.ctx, 404, decimal.Zero)
	})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestListWindow verifies limit and offset slicing on transaction lists.
func (s *MemoryStoreSuite) TestListWindow() {
	acct := s.createAccount("0")
	for i := 0; i < 5; i++ {
		s.Require().NoError(s.store.RunInTx(s.ctx, func(tx ports.TxStore) error {
			_, err := tx.InsertTransaction(s.ctx, &models.Transaction{
				UserID:    s.userID,
				AccountID: acct.ID,
				Amount:    decimal.NewFromInt(1),
				Type:      models.TransactionDeposit,
				Status:    models.TransactionCompleted,
			})
			return err
		}))
	}

	all, err := s.store.ListTransactionsByUser(s.ctx, s.userID, 0, 0)
	s.Require().NoError(err)
	s.Len(all, 5)

	page, err := s.store.ListTransactionsByUser(s.ctx, s.userID, 2, 0)
	s.Require().NoError(err)
	s.Len(page, 2)

	page, err = s.store.ListTransactionsByUser(s.ctx, s.userID, 2, 4)
	s.Require().NoError(err)
	s.Len(page, 1)

	page, err = s.store.ListTransactionsByUser(s.ctx, s.userID, 2, 10)
	s.Require().NoError(err)
	s.Empty(page)
}

// TestCopySemantics verifies readers get copies, not aliases into the store.
func (s *MemoryStoreSuite) TestCopySemantics() {
	s.createAccount("100")

	found, err := s.store.AccountByOwner(s.ctx, s.userID)
	s.Require().NoError(err)
	found.Balance = decimal.NewFromInt(0)

	again, err := s.store.AccountByOwner(s.ctx, s.userID)
	s.Require().NoError(err)
	s.True(again.Balance.Equal(decimal.NewFromInt(100)))
}
