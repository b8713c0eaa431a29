package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nexusbank/ledger/internal/domain"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string          `json:"id"`
	Handle    string          `json:"handle"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Handle:    a.Handle,
		Balance:   a.Balance,
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// RecordResponse represents a transaction record in API responses. An
// admin credit has no sender.
type RecordResponse struct {
	ID          string          `json:"id"`
	SenderID    *string         `json:"sender_id"`
	ReceiverID  string          `json:"receiver_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// RecordFromDomain converts a domain record to a response.
func RecordFromDomain(r *domain.TransactionRecord) *RecordResponse {
	return &RecordResponse{
		ID:          r.ID,
		SenderID:    r.SenderID,
		ReceiverID:  r.ReceiverID,
		Amount:      r.Amount,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
}

// RecordsFromDomain converts domain records to responses.
func RecordsFromDomain(records []*domain.TransactionRecord) []*RecordResponse {
	result := make([]*RecordResponse, len(records))
	for i, r := range records {
		result[i] = RecordFromDomain(r)
	}
	return result
}

// TransferResponse represents a completed transfer.
type TransferResponse struct {
	Record          *RecordResponse `json:"record"`
	SenderBalance   decimal.Decimal `json:"sender_balance"`
	ReceiverBalance decimal.Decimal `json:"receiver_balance"`
}

// CreditResponse represents a completed admin credit.
type CreditResponse struct {
	Record  *RecordResponse `json:"record"`
	Balance decimal.Decimal `json:"balance"`
}

// HistoryResponse represents an account's transaction history.
type HistoryResponse struct {
	Records []*RecordResponse `json:"records"`
	Limit   int               `json:"limit"`
	Offset  int               `json:"offset"`
}

// ConsistencyResponse represents the outcome of a ledger consistency check.
type ConsistencyResponse struct {
	Consistent bool `json:"consistent"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
