// Package testutil wires a complete in-process ledger application for
// end-to-end tests. It uses the in-memory store and a miniredis-backed
// idempotency store so tests run without external services.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	adapterhttp "github.com/nexusbank/ledger/internal/adapter/http"
	"github.com/nexusbank/ledger/internal/adapter/http/dto"
	"github.com/nexusbank/ledger/internal/adapter/http/handler"
	"github.com/nexusbank/ledger/internal/adapter/repository/memory"
	"github.com/nexusbank/ledger/internal/adapter/repository/postgres"
	redisrepo "github.com/nexusbank/ledger/internal/adapter/repository/redis"
	"github.com/nexusbank/ledger/internal/usecase"
)

// AdminActor is the account ID used for administrative requests in tests.
const AdminActor = "test-admin"

// TestApp is a fully wired ledger application served from memory.
type TestApp struct {
	Router http.Handler
	Ledger *usecase.LedgerUseCase
	t      *testing.T
}

// NewTestApp builds the application against the in-memory store.
func NewTestApp(t *testing.T) *TestApp {
	t.Helper()

	store := memory.New()
	idGen := postgres.NewULIDGenerator()
	ledgerUC := usecase.NewLedgerUseCase(store, store, store, store, idGen, nil, nil)

	mr := miniredis.RunT(t)
	redisClient := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	router := adapterhttp.NewRouter(adapterhttp.RouterConfig{
		AccountHandler:   handler.NewAccountHandler(ledgerUC),
		TransferHandler:  handler.NewTransferHandler(ledgerUC, nil),
		CreditHandler:    handler.NewCreditHandler(ledgerUC, nil),
		LedgerHandler:    handler.NewLedgerHandler(ledgerUC),
		HealthHandler:    handler.NewHealthHandler(nil, nil),
		IdempotencyStore: redisrepo.NewIdempotencyStore(redisClient),
		Logger:           zerolog.Nop(),
	})

	return &TestApp{
		Router: router,
		Ledger: ledgerUC,
		t:      t,
	}
}

// Request performs an HTTP request against the in-process router. A nil
// body sends no payload; headers may be nil.
func (a *TestApp) Request(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	r := httptest.NewRequest(method, path, reader)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		r.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, r)
	return w
}

// ActorHeaders returns the trusted identity headers for an account.
func ActorHeaders(accountID string) map[string]string {
	return map[string]string{"X-Actor-ID": accountID}
}

// AdminHeaders returns the trusted identity headers for an admin.
func AdminHeaders() map[string]string {
	return map[string]string{
		"X-Actor-ID":   AdminActor,
		"X-Actor-Role": "admin",
	}
}

// CreateAccount creates an account over the API and fails the test on error.
func (a *TestApp) CreateAccount(handle string) *dto.AccountResponse {
	a.t.Helper()

	w := a.Request(http.MethodPost, "/api/v1/accounts/", dto.CreateAccountRequest{Handle: handle}, nil)
	if w.Code != http.StatusCreated {
		a.t.Fatalf("failed to create account %q: status %d: %s", handle, w.Code, w.Body.String())
	}

	var resp dto.AccountResponse
	a.decode(w, &resp)
	return &resp
}

// Credit applies an administrative credit over the API.
func (a *TestApp) Credit(account, amount string) *dto.CreditResponse {
	a.t.Helper()

	body := map[string]string{"account": account, "amount": amount}
	w := a.Request(http.MethodPost, "/api/v1/credits/", body, AdminHeaders())
	if w.Code != http.StatusCreated {
		a.t.Fatalf("failed to credit %q: status %d: %s", account, w.Code, w.Body.String())
	}

	var resp dto.CreditResponse
	a.decode(w, &resp)
	return &resp
}

func (a *TestApp) decode(w *httptest.ResponseRecorder, v any) {
	a.t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		a.t.Fatalf("failed to parse response %q: %v", w.Body.String(), err)
	}
}
