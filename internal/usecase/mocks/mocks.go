package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nexusbank/ledger/internal/domain"
	"github.com/nexusbank/ledger/internal/usecase"
)

// MockAccountStore is a mock implementation of AccountStore.
type MockAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
	byHandle map[string]string

	CreateFunc            func(ctx context.Context, account *domain.Account) error
	GetByIDFunc           func(ctx context.Context, id string) (*domain.Account, error)
	GetByHandleFunc       func(ctx context.Context, handle string) (*domain.Account, error)
	GetByIDsForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalanceFunc     func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
}

func NewMockAccountStore() *MockAccountStore {
	return &MockAccountStore{
		accounts: make(map[string]*domain.Account),
		byHandle: make(map[string]string),
	}
}

func (m *MockAccountStore) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byHandle[account.Handle]; ok {
		return domain.ErrDuplicateHandle
	}
	m.accounts[account.ID] = account
	m.byHandle[account.Handle] = account.ID
	return nil
}

func (m *MockAccountStore) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountStore) GetByHandle(ctx context.Context, handle string) (*domain.Account, error) {
	if m.GetByHandleFunc != nil {
		return m.GetByHandleFunc(ctx, handle)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.byHandle[handle]; ok {
		return m.accounts[id], nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountStore) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, id := range ids {
		if acc, ok := m.accounts[id]; ok {
			accounts = append(accounts, acc)
		}
	}
	return accounts, nil
}

func (m *MockAccountStore) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		acc.Balance = balance
		acc.Version++
		acc.UpdatedAt = updatedAt
	}
	return nil
}

// MockTransactionLog is a mock implementation of TransactionLog.
type MockTransactionLog struct {
	mu      sync.RWMutex
	records []*domain.TransactionRecord

	AppendFunc        func(ctx context.Context, tx usecase.Transaction, record *domain.TransactionRecord) error
	ListByAccountFunc func(ctx context.Context, accountID string, limit, offset int) ([]*domain.TransactionRecord, error)
}

func NewMockTransactionLog() *MockTransactionLog {
	return &MockTransactionLog{}
}

func (m *MockTransactionLog) Append(ctx context.Context, tx usecase.Transaction, record *domain.TransactionRecord) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, tx, record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *MockTransactionLog) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.TransactionRecord, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var records []*domain.TransactionRecord
	for _, r := range m.records {
		if !r.AmountFor(accountID).IsZero() {
			records = append(records, r)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// Records returns a snapshot of all appended records.
func (m *MockTransactionLog) Records() []*domain.TransactionRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.TransactionRecord, len(m.records))
	copy(out, m.records)
	return out
}

// MockLedgerTotals is a mock implementation of LedgerTotals.
type MockLedgerTotals struct {
	ConservationTotalsFunc func(ctx context.Context) (decimal.Decimal, decimal.Decimal, error)
}

func NewMockLedgerTotals() *MockLedgerTotals {
	return &MockLedgerTotals{}
}

func (m *MockLedgerTotals) ConservationTotals(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	if m.ConservationTotalsFunc != nil {
		return m.ConservationTotalsFunc(ctx)
	}
	return decimal.Zero, decimal.Zero, nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	Committed  bool
	RolledBack bool
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	if !m.Committed {
		m.RolledBack = true
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return "mock-id-" + string(rune('0'+m.counter))
}

// MockNotifier is a mock implementation of Notifier.
type MockNotifier struct {
	mu     sync.Mutex
	events []domain.Notification

	NotifyFunc func(ctx context.Context, n domain.Notification)
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, n domain.Notification) {
	if m.NotifyFunc != nil {
		m.NotifyFunc(ctx, n)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, n)
}

// Events returns a snapshot of delivered notifications.
func (m *MockNotifier) Events() []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Notification, len(m.events))
	copy(out, m.events)
	return out
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}
