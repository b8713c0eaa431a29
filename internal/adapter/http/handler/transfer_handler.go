package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/nexusbank/ledger/internal/adapter/http/dto"
	"github.com/nexusbank/ledger/internal/adapter/http/middleware"
	"github.com/nexusbank/ledger/internal/domain"
	"github.com/nexusbank/ledger/internal/usecase"
)

// TransferService defines the behavior needed by TransferHandler.
type TransferService interface {
	GetAccount(ctx context.Context, idOrHandle string) (*domain.Account, error)
	Transfer(ctx context.Context, senderID, receiverID string, amount decimal.Decimal, description string) (*usecase.TransferResult, error)
}

// TransferHandler handles transfer HTTP requests. The sender is always the
// authenticated actor; the request body only names the receiver.
type TransferHandler struct {
	ledger  TransferService
	retrier usecase.Retrier
}

// NewTransferHandler creates a new TransferHandler. retrier may be nil.
func NewTransferHandler(ledger TransferService, retrier usecase.Retrier) *TransferHandler {
	return &TransferHandler{ledger: ledger, retrier: retrier}
}

// Create executes a transfer from the acting account to the receiver.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required", "")
		return
	}

	var req dto.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.Receiver == "" {
		writeError(w, http.StatusBadRequest, "missing receiver", "")
		return
	}

	receiver, err := h.ledger.GetAccount(r.Context(), req.Receiver)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to resolve receiver", err.Error())
		return
	}

	var result *usecase.TransferResult
	err = h.retry(r.Context(), func() error {
		var txErr error
		result, txErr = h.ledger.Transfer(r.Context(), actor.AccountID, receiver.ID, req.Amount, req.Description)
		return txErr
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to transfer", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferResponse{
		Record:          dto.RecordFromDomain(result.Record),
		SenderBalance:   result.SenderBalance,
		ReceiverBalance: result.ReceiverBalance,
	})
}

// retry runs op through the configured retrier. Each attempt re-runs the
// full ledger operation from a fresh transaction.
func (h *TransferHandler) retry(ctx context.Context, op func() error) error {
	if h.retrier == nil {
		return op()
	}
	return h.retrier.Retry(ctx, op)
}
