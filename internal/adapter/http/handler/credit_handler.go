package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/nexusbank/ledger/internal/adapter/http/dto"
	"github.com/nexusbank/ledger/internal/domain"
	"github.com/nexusbank/ledger/internal/usecase"
)

// CreditService defines the behavior needed by CreditHandler.
type CreditService interface {
	GetAccount(ctx context.Context, idOrHandle string) (*domain.Account, error)
	AdminCredit(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*usecase.CreditResult, error)
}

// CreditHandler handles administrative credits. The router only reaches it
// through the admin-role middleware.
type CreditHandler struct {
	ledger  CreditService
	retrier usecase.Retrier
}

// NewCreditHandler creates a new CreditHandler. retrier may be nil.
func NewCreditHandler(ledger CreditService, retrier usecase.Retrier) *CreditHandler {
	return &CreditHandler{ledger: ledger, retrier: retrier}
}

// Create credits an account from outside the ledger.
func (h *CreditHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.Account == "" {
		writeError(w, http.StatusBadRequest, "missing account", "")
		return
	}

	account, err := h.ledger.GetAccount(r.Context(), req.Account)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to resolve account", err.Error())
		return
	}

	var result *usecase.CreditResult
	err = h.retry(r.Context(), func() error {
		var txErr error
		result, txErr = h.ledger.AdminCredit(r.Context(), account.ID, req.Amount, req.Description)
		return txErr
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to credit account", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.CreditResponse{
		Record:  dto.RecordFromDomain(result.Record),
		Balance: result.Balance,
	})
}

func (h *CreditHandler) retry(ctx context.Context, op func() error) error {
	if h.retrier == nil {
		return op()
	}
	return h.retrier.Retry(ctx, op)
}
