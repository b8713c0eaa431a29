package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecord is one immutable entry in the append-only transaction
// log. A nil SenderID marks an administrative credit.
type TransactionRecord struct {
	ID          string
	SenderID    *string
	ReceiverID  string
	Amount      decimal.Decimal
	Description string
	CreatedAt   time.Time
}

// IsAdminCredit reports whether the record was system-originated.
func (r *TransactionRecord) IsAdminCredit() bool {
	return r.SenderID == nil
}

// AmountFor returns the signed balance change this record caused for the
// given account: positive for the receiver, negative for the sender, zero
// for accounts the record does not touch.
func (r *TransactionRecord) AmountFor(accountID string) decimal.Decimal {
	if r.ReceiverID == accountID {
		return r.Amount
	}
	if r.SenderID != nil && *r.SenderID == accountID {
		return r.Amount.Neg()
	}
	return decimal.Zero
}
