package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nexusbank/ledger/internal/adapter/http/dto"
	"github.com/nexusbank/ledger/internal/domain"
	"github.com/nexusbank/ledger/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, handle string) (*domain.Account, error)
	GetAccount(ctx context.Context, idOrHandle string) (*domain.Account, error)
	GetHistory(ctx context.Context, input usecase.GetHistoryInput) ([]*domain.TransactionRecord, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	ledger AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(ledger AccountService) *AccountHandler {
	return &AccountHandler{ledger: ledger}
}

// Create registers a new account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.ledger.CreateAccount(r.Context(), req.Handle)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create account", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID or handle.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	account, err := h.ledger.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// History lists an account's transaction records, newest first.
func (h *AccountHandler) History(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	account, err := h.ledger.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get account", err.Error())
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	records, err := h.ledger.GetHistory(r.Context(), usecase.GetHistoryInput{
		AccountID: account.ID,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get history", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.HistoryResponse{
		Records: dto.RecordsFromDomain(records),
		Limit:   limit,
		Offset:  offset,
	})
}
