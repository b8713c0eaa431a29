package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexusbank/ledger/internal/domain"
	"github.com/nexusbank/ledger/internal/usecase"
)

// RecordRepository implements usecase.TransactionLog.
type RecordRepository struct {
	db querier
}

// NewRecordRepository creates a new RecordRepository.
func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository {
	return newRecordRepositoryWithDB(pool)
}

func newRecordRepositoryWithDB(db querier) *RecordRepository {
	return &RecordRepository{db: db}
}

const appendRecordSQL = `
INSERT INTO transactions (id, sender_id, receiver_id, amount, description, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

// Append inserts a transaction record inside a transaction.
func (r *RecordRepository) Append(ctx context.Context, tx usecase.Transaction, record *domain.TransactionRecord) error {
	pgxTx := tx.(*Tx).PgxTx()

	amount, err := decimalToNumeric(record.Amount)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, appendRecordSQL,
		record.ID,
		record.SenderID,
		record.ReceiverID,
		amount,
		record.Description,
		timeToPgTimestamptz(record.CreatedAt),
	)

	return err
}

const listRecordsByAccountSQL = `
SELECT id, sender_id, receiver_id, amount, description, created_at
FROM transactions
WHERE sender_id = $1 OR receiver_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`

// ListByAccount lists records where the account is sender or receiver,
// newest first.
func (r *RecordRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.TransactionRecord, error) {
	rows, err := r.db.Query(ctx, listRecordsByAccountSQL, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.TransactionRecord
	for rows.Next() {
		var (
			record    domain.TransactionRecord
			amount    pgtype.Numeric
			createdAt pgtype.Timestamptz
		)

		if err := rows.Scan(&record.ID, &record.SenderID, &record.ReceiverID, &amount, &record.Description, &createdAt); err != nil {
			return nil, err
		}

		record.Amount = numericToDecimal(amount)
		record.CreatedAt = createdAt.Time
		records = append(records, &record)
	}

	return records, rows.Err()
}
