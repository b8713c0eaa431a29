package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LedgerRepository implements usecase.LedgerTotals.
type LedgerRepository struct {
	db querier
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return newLedgerRepositoryWithDB(pool)
}

func newLedgerRepositoryWithDB(db querier) *LedgerRepository {
	return &LedgerRepository{db: db}
}

const conservationTotalsSQL = `
SELECT
  COALESCE((SELECT SUM(balance) FROM accounts), 0),
  COALESCE((SELECT SUM(amount) FROM transactions WHERE sender_id IS NULL), 0)`

// ConservationTotals returns the sum of all balances and the sum of all
// admin-credit amounts. For a consistent ledger the two are equal, since
// transfers only move money between accounts.
func (r *LedgerRepository) ConservationTotals(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	var totalBalance, totalCredited pgtype.Numeric

	if err := r.db.QueryRow(ctx, conservationTotalsSQL).Scan(&totalBalance, &totalCredited); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(totalBalance), numericToDecimal(totalCredited), nil
}
