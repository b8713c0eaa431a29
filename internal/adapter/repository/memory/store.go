// Package memory provides a mutex-guarded in-memory implementation of the
// ledger storage interfaces, used for development and tests. A transaction
// holds the store lock from Begin until Commit or Rollback, staging writes
// so an aborted operation leaves no trace.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nexusbank/ledger/internal/domain"
	"github.com/nexusbank/ledger/internal/usecase"
)

// Store is an in-memory AccountStore, TransactionLog, LedgerTotals and
// TransactionManager.
type Store struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	byHandle map[string]string
	records  []*domain.TransactionRecord
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		accounts: make(map[string]*domain.Account),
		byHandle: make(map[string]string),
	}
}

// Begin acquires the store lock and returns a transaction that stages
// writes until Commit. Every transaction serializes against all other
// store access, which trivially satisfies per-operation isolation.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	s.mu.Lock()
	return &memTx{
		store:    s,
		balances: make(map[string]stagedBalance),
	}, nil
}

type stagedBalance struct {
	balance   decimal.Decimal
	updatedAt time.Time
}

type memTx struct {
	store    *Store
	balances map[string]stagedBalance
	records  []*domain.TransactionRecord
	done     bool
}

// Commit applies staged writes and releases the store lock.
func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true

	for id, staged := range t.balances {
		if acc, ok := t.store.accounts[id]; ok {
			acc.Balance = staged.balance
			acc.Version++
			acc.UpdatedAt = staged.updatedAt
		}
	}
	t.store.records = append(t.store.records, t.records...)

	t.store.mu.Unlock()
	return nil
}

// Rollback discards staged writes and releases the store lock. Calling
// Rollback after Commit is a no-op, so it is safe to defer.
func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true

	t.store.mu.Unlock()
	return nil
}

// Create registers a new account.
func (s *Store) Create(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byHandle[account.Handle]; ok {
		return domain.ErrDuplicateHandle
	}

	copied := *account
	s.accounts[account.ID] = &copied
	s.byHandle[account.Handle] = account.ID
	return nil
}

// GetByID retrieves an account by id.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupLocked(id)
}

// GetByHandle retrieves an account by handle.
func (s *Store) GetByHandle(ctx context.Context, handle string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byHandle[handle]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return s.lookupLocked(id)
}

func (s *Store) lookupLocked(id string) (*domain.Account, error) {
	acc, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	copied := *acc
	return &copied, nil
}

// GetByIDsForUpdate returns copies of the requested accounts. The caller
// already holds the store lock through the transaction, so the copies
// cannot go stale before Commit.
func (s *Store) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if _, ok := tx.(*memTx); !ok {
		return nil, errInvalidTx
	}

	accounts := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		if acc, ok := s.accounts[id]; ok {
			copied := *acc
			accounts = append(accounts, &copied)
		}
	}
	return accounts, nil
}

// UpdateBalance stages a balance write in the transaction.
func (s *Store) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	mt, ok := tx.(*memTx)
	if !ok {
		return errInvalidTx
	}

	if _, exists := s.accounts[id]; !exists {
		return domain.ErrAccountNotFound
	}

	if balance.IsNegative() {
		return domain.ErrNegativeBalance
	}

	mt.balances[id] = stagedBalance{balance: balance, updatedAt: updatedAt}
	return nil
}

// Append stages a record in the transaction.
func (s *Store) Append(ctx context.Context, tx usecase.Transaction, record *domain.TransactionRecord) error {
	mt, ok := tx.(*memTx)
	if !ok {
		return errInvalidTx
	}

	copied := *record
	mt.records = append(mt.records, &copied)
	return nil
}

// ListByAccount lists committed records touching the account, newest first.
func (s *Store) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*domain.TransactionRecord
	for _, r := range s.records {
		if r.ReceiverID == accountID || (r.SenderID != nil && *r.SenderID == accountID) {
			matched = append(matched, r)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	out := make([]*domain.TransactionRecord, len(matched))
	for i, r := range matched {
		copied := *r
		out[i] = &copied
	}
	return out, nil
}

// ConservationTotals sums committed balances and admin-credit amounts.
func (s *Store) ConservationTotals(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totalBalance := decimal.Zero
	for _, acc := range s.accounts {
		totalBalance = totalBalance.Add(acc.Balance)
	}

	totalCredited := decimal.Zero
	for _, r := range s.records {
		if r.SenderID == nil {
			totalCredited = totalCredited.Add(r.Amount)
		}
	}

	return totalBalance, totalCredited, nil
}

var errInvalidTx = invalidTxError{}

type invalidTxError struct{}

func (invalidTxError) Error() string { return "memory: transaction does not belong to this store" }
