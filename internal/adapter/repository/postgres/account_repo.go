package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nexusbank/ledger/internal/domain"
	"github.com/nexusbank/ledger/internal/usecase"
)

const pgErrUniqueViolation = "23505"

// querier is the subset of pgx used by the repositories. Both pgxpool.Pool
// and pgx.Tx satisfy it.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository implements usecase.AccountStore.
type AccountRepository struct {
	db querier
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return newAccountRepositoryWithDB(pool)
}

func newAccountRepositoryWithDB(db querier) *AccountRepository {
	return &AccountRepository{db: db}
}

const createAccountSQL = `
INSERT INTO accounts (id, handle, balance, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`

// Create creates a new account. A handle collision maps to
// domain.ErrDuplicateHandle.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	balance, err := decimalToNumeric(account.Balance)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, createAccountSQL,
		account.ID,
		account.Handle,
		balance,
		account.Version,
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return domain.ErrDuplicateHandle
		}

		return err
	}

	return nil
}

const getAccountByIDSQL = `
SELECT id, handle, balance, version, created_at, updated_at
FROM accounts
WHERE id = $1`

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return scanAccount(r.db.QueryRow(ctx, getAccountByIDSQL, id))
}

const getAccountByHandleSQL = `
SELECT id, handle, balance, version, created_at, updated_at
FROM accounts
WHERE handle = $1`

// GetByHandle retrieves an account by handle.
func (r *AccountRepository) GetByHandle(ctx context.Context, handle string) (*domain.Account, error) {
	return scanAccount(r.db.QueryRow(ctx, getAccountByHandleSQL, handle))
}

const getAccountsForUpdateSQL = `
SELECT id, handle, balance, version, created_at, updated_at
FROM accounts
WHERE id = ANY($1)
ORDER BY id
FOR UPDATE`

// GetByIDsForUpdate retrieves multiple accounts with FOR UPDATE locks.
// Rows are locked in ascending ID order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	pgxTx := tx.(*Tx).PgxTx()

	rows, err := pgxTx.Query(ctx, getAccountsForUpdateSQL, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0, len(ids))
	for rows.Next() {
		account, err := scanAccountRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

const updateBalanceSQL = `
UPDATE accounts
SET balance = $2, version = version + 1, updated_at = $3
WHERE id = $1`

// UpdateBalance updates the balance of an account inside a transaction.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	numericBalance, err := decimalToNumeric(balance)
	if err != nil {
		return err
	}

	tag, err := pgxTx.Exec(ctx, updateBalanceSQL, id, numericBalance, timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	account, err := scanAccountRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return account, nil
}

func scanAccountRow(row rowScanner) (*domain.Account, error) {
	var (
		account   domain.Account
		balance   pgtype.Numeric
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	if err := row.Scan(&account.ID, &account.Handle, &balance, &account.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	account.Balance = numericToDecimal(balance)
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time

	return &account, nil
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) (pgtype.Numeric, error) {
	var n pgtype.Numeric

	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, fmt.Errorf("failed to convert decimal %s: %w", d, err)
	}

	return n, nil
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
