package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nexusbank/ledger/internal/domain"
)

// AccountStore defines data access for accounts.
type AccountStore interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByHandle(ctx context.Context, handle string) (*domain.Account, error)
	// GetByIDsForUpdate locks the given accounts for the duration of the
	// transaction. Callers must pass ids sorted ascending so every
	// operation acquires locks in the same order.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
}

// TransactionLog defines data access for the append-only transaction log.
type TransactionLog interface {
	Append(ctx context.Context, tx Transaction, record *domain.TransactionRecord) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.TransactionRecord, error)
}

// LedgerTotals defines ledger-wide aggregate queries.
type LedgerTotals interface {
	// ConservationTotals returns the sum of all account balances and the
	// sum of all admin-credit amounts.
	ConservationTotals(ctx context.Context) (totalBalance, totalCredited decimal.Decimal, err error)
}

// Transaction represents a storage transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Notifier delivers post-commit notifications. Implementations must not
// block the caller; delivery failures are the sink's problem, never the
// ledger's.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// Retrier retries an operation on transient storage failures. The ledger
// itself never retries; retrying a fully rolled-back operation is the
// caller's decision.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
