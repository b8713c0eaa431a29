package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrDuplicateHandle = errors.New("handle already taken")
	ErrNegativeBalance = errors.New("balance may not go negative")

	// Ledger operation errors
	ErrSameAccount       = errors.New("cannot transfer to same account")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
)
