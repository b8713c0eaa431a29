package dto

import (
	"github.com/shopspring/decimal"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Handle string `json:"handle"`
}

// TransferRequest represents a request to transfer money from the acting
// account to a receiver. The sender is never part of the body; it comes
// from the authenticated actor.
type TransferRequest struct {
	Receiver    string          `json:"receiver"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// CreditRequest represents an administrative credit.
type CreditRequest struct {
	Account     string          `json:"account"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}
