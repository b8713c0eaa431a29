package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/nexusbank/ledger/internal/adapter/http/middleware"
	"github.com/nexusbank/ledger/internal/domain"
	"github.com/nexusbank/ledger/internal/usecase"
)

type transferServiceStub struct {
	getAccountFn func(ctx context.Context, idOrHandle string) (*domain.Account, error)
	transferFn   func(ctx context.Context, senderID, receiverID string, amount decimal.Decimal, description string) (*usecase.TransferResult, error)
}

func (s *transferServiceStub) GetAccount(ctx context.Context, idOrHandle string) (*domain.Account, error) {
	return s.getAccountFn(ctx, idOrHandle)
}

func (s *transferServiceStub) Transfer(ctx context.Context, senderID, receiverID string, amount decimal.Decimal, description string) (*usecase.TransferResult, error) {
	return s.transferFn(ctx, senderID, receiverID, amount, description)
}

func withActor(r *http.Request, actor *middleware.Actor) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.ActorContextKey, actor)
	return r.WithContext(ctx)
}

func TestTransferHandlerCreateSuccess(t *testing.T) {
	var capturedSender, capturedReceiver string

	h := NewTransferHandler(&transferServiceStub{
		getAccountFn: func(ctx context.Context, idOrHandle string) (*domain.Account, error) {
			return &domain.Account{ID: "acc-2", Handle: idOrHandle}, nil
		},
		transferFn: func(ctx context.Context, senderID, receiverID string, amount decimal.Decimal, description string) (*usecase.TransferResult, error) {
			capturedSender = senderID
			capturedReceiver = receiverID
			senderID2 := senderID
			return &usecase.TransferResult{
				Record: &domain.TransactionRecord{
					ID:         "rec-1",
					SenderID:   &senderID2,
					ReceiverID: receiverID,
					Amount:     amount,
				},
				SenderBalance:   decimal.NewFromInt(40),
				ReceiverBalance: decimal.NewFromInt(60),
			}, nil
		},
	}, nil)

	body := []byte(`{"receiver":"bob","amount":"60"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers", bytes.NewReader(body))
	req = withActor(req, &middleware.Actor{AccountID: "acc-1"})
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if capturedSender != "acc-1" || capturedReceiver != "acc-2" {
		t.Fatalf("expected transfer acc-1 -> acc-2, got %s -> %s", capturedSender, capturedReceiver)
	}

	var resp struct {
		SenderBalance decimal.Decimal `json:"sender_balance"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.SenderBalance.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected sender balance 40, got %s", resp.SenderBalance)
	}
}

func TestTransferHandlerCreateMissingActor(t *testing.T) {
	h := NewTransferHandler(&transferServiceStub{
		getAccountFn: func(ctx context.Context, idOrHandle string) (*domain.Account, error) {
			t.Fatal("GetAccount should not be called")
			return nil, nil
		},
		transferFn: func(ctx context.Context, senderID, receiverID string, amount decimal.Decimal, description string) (*usecase.TransferResult, error) {
			t.Fatal("Transfer should not be called")
			return nil, nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers", bytes.NewBufferString(`{"receiver":"bob","amount":"10"}`))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestTransferHandlerCreateInvalidBody(t *testing.T) {
	h := NewTransferHandler(&transferServiceStub{
		transferFn: func(ctx context.Context, senderID, receiverID string, amount decimal.Decimal, description string) (*usecase.TransferResult, error) {
			t.Fatal("Transfer should not be called")
			return nil, nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers", bytes.NewBufferString("{bad json"))
	req = withActor(req, &middleware.Actor{AccountID: "acc-1"})
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTransferHandlerCreateUnknownReceiver(t *testing.T) {
	h := NewTransferHandler(&transferServiceStub{
		getAccountFn: func(ctx context.Context, idOrHandle string) (*domain.Account, error) {
			return nil, domain.ErrAccountNotFound
		},
		transferFn: func(ctx context.Context, senderID, receiverID string, amount decimal.Decimal, description string) (*usecase.TransferResult, error) {
			t.Fatal("Transfer should not be called")
			return nil, nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers", bytes.NewBufferString(`{"receiver":"ghost","amount":"10"}`))
	req = withActor(req, &middleware.Actor{AccountID: "acc-1"})
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTransferHandlerCreateInsufficientFunds(t *testing.T) {
	h := NewTransferHandler(&transferServiceStub{
		getAccountFn: func(ctx context.Context, idOrHandle string) (*domain.Account, error) {
			return &domain.Account{ID: "acc-2"}, nil
		},
		transferFn: func(ctx context.Context, senderID, receiverID string, amount decimal.Decimal, description string) (*usecase.TransferResult, error) {
			return nil, domain.ErrInsufficientFunds
		},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers", bytes.NewBufferString(`{"receiver":"bob","amount":"1000"}`))
	req = withActor(req, &middleware.Actor{AccountID: "acc-1"})
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}
