package integration

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/nexusbank/ledger/internal/adapter/http/dto"
	"github.com/nexusbank/ledger/tests/testutil"
)

func TestConcurrentTransfers(t *testing.T) {
	app := testutil.NewTestApp(t)

	alice := app.CreateAccount("alice")
	bob := app.CreateAccount("bob")
	app.Credit(alice.ID, "100")

	// 20 concurrent drains of 10 against a balance of 100: exactly 10
	// succeed, the rest fail with insufficient funds.
	const attempts = 20

	var wg sync.WaitGroup
	codes := make([]int, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := map[string]string{"receiver": bob.ID, "amount": "10"}
			w := app.Request(http.MethodPost, "/api/v1/transfers/", body, testutil.ActorHeaders(alice.ID))
			codes[i] = w.Code
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			succeeded++
		case http.StatusUnprocessableEntity:
			rejected++
		default:
			t.Errorf("unexpected status %d", code)
		}
	}

	if succeeded != 10 {
		t.Errorf("expected 10 successful transfers, got %d", succeeded)
	}
	if rejected != attempts-10 {
		t.Errorf("expected %d rejected transfers, got %d", attempts-10, rejected)
	}

	for _, check := range []struct {
		id   string
		want decimal.Decimal
	}{
		{alice.ID, decimal.Zero},
		{bob.ID, decimal.NewFromInt(100)},
	} {
		w := app.Request(http.MethodGet, "/api/v1/accounts/"+check.id, nil, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var resp dto.AccountResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if !resp.Balance.Equal(check.want) {
			t.Errorf("account %s: expected balance %s, got %s", check.id, check.want, resp.Balance)
		}
	}

	w := app.Request(http.MethodGet, "/api/v1/ledger/consistency", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected consistent ledger, got %d: %s", w.Code, w.Body.String())
	}
}
