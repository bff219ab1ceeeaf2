// Package memory implements the ledger store over in-process maps. A coarse
// lock held for the duration of a unit gives the same serialization the
// postgres store gets from row locks; writes are staged in an overlay and
// only merged into the base maps when the unit function returns nil, so a
// failed unit leaves no partial writes.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	authmodels "vaultbank/internal/auth/models"
	authstore "vaultbank/internal/auth/store"
	"vaultbank/internal/ledger/models"
	"vaultbank/internal/ledger/ports"
	"vaultbank/pkg/platform/sentinel"
)

type Store struct {
	mu    sync.Mutex
	users authstore.UserStore

	nextAccountID  int64
	nextTxnID      int64
	nextDepositID  int64
	nextKYCID      int64
	accounts       map[int64]*models.Account
	accountByOwner map[int64]int64
	transactions   map[int64]*models.Transaction
	deposits       map[int64]*models.Deposit
	kyc            map[int64]*models.KYCSubmission
}

func New(users authstore.UserStore) *Store {
	return &Store{
		users:          users,
		accounts:       make(map[int64]*models.Account),
		accountByOwner: make(map[int64]int64),
		transactions:   make(map[int64]*models.Transaction),
		deposits:       make(map[int64]*models.Deposit),
		kyc:            make(map[int64]*models.KYCSubmission),
	}
}

// RunInTx serializes units behind the store lock and commits staged writes
// only when fn succeeds.
func (s *Store) RunInTx(ctx context.Context, fn func(tx ports.TxStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unit := &txStore{
		base:     s,
		accounts: make(map[int64]*models.Account),
		txns:     make(map[int64]*models.Transaction),
		deposits: make(map[int64]*models.Deposit),
		kyc:      make(map[int64]*models.KYCSubmission),
	}
	if err := fn(unit); err != nil {
		return err
	}
	unit.commit()
	return nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (*authmodels.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *Store) AccountByOwner(_ context.Context, ownerID int64) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountByOwnerLocked(ownerID)
}

func (s *Store) accountByOwnerLocked(ownerID int64) (*models.Account, error) {
	id, ok := s.accountByOwner[ownerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.accounts[id]
	return &cp, nil
}

func (s *Store) TransactionByID(_ context.Context, id int64) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if txn, ok := s.transactions[id]; ok {
		cp := *txn
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *Store) ListTransactionsByUser(_ context.Context, userID int64, limit, offset int) ([]*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Transaction
	for id := int64(1); id <= s.nextTxnID; id++ {
		txn, ok := s.transactions[id]
		if !ok || txn.UserID != userID {
			continue
		}
		cp := *txn
		out = append(out, &cp)
	}
	return window(out, limit, offset), nil
}

func (s *Store) DepositByID(_ context.Context, id int64) (*models.Deposit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dep, ok := s.deposits[id]; ok {
		cp := *dep
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *Store) ListDepositsByUser(_ context.Context, userID int64, limit, offset int) ([]*models.Deposit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Deposit
	for id := int64(1); id <= s.nextDepositID; id++ {
		dep, ok := s.deposits[id]
		if !ok || dep.UserID != userID {
			continue
		}
		cp := *dep
		out = append(out, &cp)
	}
	return window(out, limit, offset), nil
}

func (s *Store) KYCSubmissionByID(_ context.Context, id int64) (*models.KYCSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.kyc[id]; ok {
		cp := *sub
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *Store) ListKYCSubmissions(_ context.Context, status models.KYCStatus, limit, offset int) ([]*models.KYCSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.KYCSubmission
	for id := int64(1); id <= s.nextKYCID; id++ {
		sub, ok := s.kyc[id]
		if !ok {
			continue
		}
		if status != "" && sub.Status != status {
			continue
		}
		cp := *sub
		out = append(out, &cp)
	}
	return window(out, limit, offset), nil
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// txStore overlays staged writes on the base store. The base lock is already
// held, so base maps are read directly.
type txStore struct {
	base     *Store
	accounts map[int64]*models.Account
	txns     map[int64]*models.Transaction
	deposits map[int64]*models.Deposit
	kyc      map[int64]*models.KYCSubmission
}

func (t *txStore) commit() {
	for id, acct := range t.accounts {
		t.base.accounts[id] = acct
		t.base.accountByOwner[acct.OwnerID] = id
	}
	for id, txn := range t.txns {
		t.base.transactions[id] = txn
	}
	for id, dep := range t.deposits {
		t.base.deposits[id] = dep
	}
	for id, sub := range t.kyc {
		t.base.kyc[id] = sub
	}
}

func (t *txStore) UserByID(ctx context.Context, id int64) (*authmodels.User, error) {
	return t.base.users.FindByID(ctx, id)
}

func (t *txStore) AccountByOwner(_ context.Context, ownerID int64) (*models.Account, error) {
	for _, acct := range t.accounts {
		if acct.OwnerID == ownerID {
			cp := *acct
			return &cp, nil
		}
	}
	return t.base.accountByOwnerLocked(ownerID)
}

func (t *txStore) CreateAccount(_ context.Context, account *models.Account) (*models.Account, error) {
	t.base.nextAccountID++
	staged := *account
	staged.ID = t.base.nextAccountID
	if staged.CreatedAt.IsZero() {
		staged.CreatedAt = time.Now()
	}
	t.accounts[staged.ID] = &staged

	cp := staged
	return &cp, nil
}

func (t *txStore) SetAccountBalance(_ context.Context, accountID int64, balance decimal.Decimal) error {
	acct, ok := t.accounts[accountID]
	if !ok {
		base, found := t.base.accounts[accountID]
		if !found {
			return sentinel.ErrNotFound
		}
		staged := *base
		acct = &staged
		t.accounts[accountID] = acct
	}
	now := time.Now()
	acct.Balance = balance
	acct.UpdatedAt = &now
	return nil
}

func (t *txStore) TransactionByID(_ context.Context, id int64) (*models.Transaction, error) {
	if txn, ok := t.txns[id]; ok {
		cp := *txn
		return &cp, nil
	}
	if txn, ok := t.base.transactions[id]; ok {
		cp := *txn
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (t *txStore) ListTransactionsByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.Transaction, error) {
	// Lists are not needed inside units; read the base directly.
	var out []*models.Transaction
	for id := int64(1); id <= t.base.nextTxnID; id++ {
		txn, ok := t.txns[id]
		if !ok {
			txn, ok = t.base.transactions[id]
		}
		if !ok || txn.UserID != userID {
			continue
		}
		cp := *txn
		out = append(out, &cp)
	}
	return window(out, limit, offset), nil
}

func (t *txStore) InsertTransaction(_ context.Context, txn *models.Transaction) (*models.Transaction, error) {
	t.base.nextTxnID++
	staged := *txn
	staged.ID = t.base.nextTxnID
	if staged.CreatedAt.IsZero() {
		staged.CreatedAt = time.Now()
	}
	t.txns[staged.ID] = &staged

	cp := staged
	return &cp, nil
}

func (t *txStore) SetTransactionStatus(_ context.Context, id int64, status models.TransactionStatus) error {
	txn, ok := t.txns[id]
	if !ok {
		base, found := t.base.transactions[id]
		if !found {
			return sentinel.ErrNotFound
		}
		staged := *base
		txn = &staged
		t.txns[id] = txn
	}
	now := time.Now()
	txn.Status = status
	txn.UpdatedAt = &now
	return nil
}

func (t *txStore) DepositByID(_ context.Context, id int64) (*models.Deposit, error) {
	if dep, ok := t.deposits[id]; ok {
		cp := *dep
		return &cp, nil
	}
	if dep, ok := t.base.deposits[id]; ok {
		cp := *dep
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (t *txStore) ListDepositsByUser(ctx context.Context, userID int64, limit, offset int) ([]*models.Deposit, error) {
	var out []*models.Deposit
	for id := int64(1); id <= t.base.nextDepositID; id++ {
		dep, ok := t.deposits[id]
		if !ok {
			dep, ok = t.base.deposits[id]
		}
		if !ok || dep.UserID != userID {
			continue
		}
		cp := *dep
		out = append(out, &cp)
	}
	return window(out, limit, offset), nil
}

func (t *txStore) CreateDeposit(_ context.Context, deposit *models.Deposit) (*models.Deposit, error) {
	t.base.nextDepositID++
	staged := *deposit
	staged.ID = t.base.nextDepositID
	if staged.CreatedAt.IsZero() {
		staged.CreatedAt = time.Now()
	}
	t.deposits[staged.ID] = &staged

	cp := staged
	return &cp, nil
}

func (t *txStore) SetDepositStatus(_ context.Context, id int64, status models.DepositStatus) error {
	dep, ok := t.deposits[id]
	if !ok {
		base, found := t.base.deposits[id]
		if !found {
			return sentinel.ErrNotFound
		}
		staged := *base
		dep = &staged
		t.deposits[id] = dep
	}
	dep.Status = status
	return nil
}

func (t *txStore) KYCSubmissionByID(_ context.Context, id int64) (*models.KYCSubmission, error) {
	if sub, ok := t.kyc[id]; ok {
		cp := *sub
		return &cp, nil
	}
	if sub, ok := t.base.kyc[id]; ok {
		cp := *sub
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (t *txStore) ListKYCSubmissions(_ context.Context, status models.KYCStatus, limit, offset int) ([]*models.KYCSubmission, error) {
	var out []*models.KYCSubmission
	for id := int64(1); id <= t.base.nextKYCID; id++ {
		sub, ok := t.kyc[id]
		if !ok {
			sub, ok = t.base.kyc[id]
		}
		if !ok {
			continue
		}
		if status != "" && sub.Status != status {
			continue
		}
		cp := *sub
		out = append(out, &cp)
	}
	return window(out, limit, offset), nil
}

func (t *txStore) CreateKYCSubmission(_ context.Context, submission *models.KYCSubmission) (*models.KYCSubmission, error) {
	t.base.nextKYCID++
	staged := *submission
	staged.ID = t.base.nextKYCID
	if staged.SubmittedAt.IsZero() {
		staged.SubmittedAt = time.Now()
	}
	t.kyc[staged.ID] = &staged

	cp := staged
	return &cp, nil
}

func (t *txStore) UpdateKYCSubmission(_ context.Context, submission *models.KYCSubmission) error {
	if _, ok := t.kyc[submission.ID]; !ok {
		if _, found := t.base.kyc[submission.ID]; !found {
			return sentinel.ErrNotFound
		}
	}
	staged := *submission
	t.kyc[submission.ID] = &staged
	return nil
}
