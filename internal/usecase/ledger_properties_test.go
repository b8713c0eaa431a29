package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/nexusbank/ledger/internal/adapter/repository/memory"
	"github.com/nexusbank/ledger/internal/adapter/repository/postgres"
	"github.com/nexusbank/ledger/internal/domain"
	"github.com/nexusbank/ledger/internal/usecase"
)

// newMemoryLedger wires the engine against the in-memory store, which has
// real transactional semantics.
func newMemoryLedger() (*usecase.LedgerUseCase, *memory.Store) {
	store := memory.New()
	uc := usecase.NewLedgerUseCase(store, store, store, store, postgres.NewULIDGenerator(), nil, nil)
	return uc, store
}

func mustCreateAccount(t *testing.T, uc *usecase.LedgerUseCase, handle string) *domain.Account {
	t.Helper()
	account, err := uc.CreateAccount(context.Background(), handle)
	if err != nil {
		t.Fatalf("failed to create account %s: %v", handle, err)
	}
	return account
}

func mustCredit(t *testing.T, uc *usecase.LedgerUseCase, accountID string, amount int64) {
	t.Helper()
	if _, err := uc.AdminCredit(context.Background(), accountID, decimal.NewFromInt(amount), "seed"); err != nil {
		t.Fatalf("failed to credit account %s: %v", accountID, err)
	}
}

func TestConservationUnderTransfers(t *testing.T) {
	ctx := context.Background()
	uc, store := newMemoryLedger()

	a := mustCreateAccount(t, uc, "alice")
	b := mustCreateAccount(t, uc, "bob")
	c := mustCreateAccount(t, uc, "carol")
	mustCredit(t, uc, a.ID, 300)
	mustCredit(t, uc, b.ID, 200)

	transfers := []struct {
		from, to string
		amount   int64
	}{
		{a.ID, b.ID, 50},
		{b.ID, c.ID, 120},
		{a.ID, c.ID, 10},
		{c.ID, a.ID, 60},
		{a.ID, b.ID, 500}, // insufficient, must not affect the total
	}

	for _, tr := range transfers {
		_, err := uc.Transfer(ctx, tr.from, tr.to, decimal.NewFromInt(tr.amount), "")
		if err != nil && !errors.Is(err, domain.ErrInsufficientFunds) {
			t.Fatalf("unexpected transfer error: %v", err)
		}
	}

	totalBalance, totalCredited, err := store.ConservationTotals(ctx)
	if err != nil {
		t.Fatalf("totals failed: %v", err)
	}

	if !totalBalance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected total balance 500, got %s", totalBalance)
	}
	if !totalCredited.Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected total credited 500, got %s", totalCredited)
	}

	ok, err := uc.CheckConsistency(ctx)
	if err != nil || !ok {
		t.Errorf("expected consistent ledger, got ok=%v err=%v", ok, err)
	}
}

func TestNonNegativityUnderConcurrentDrains(t *testing.T) {
	ctx := context.Background()
	uc, _ := newMemoryLedger()

	source := mustCreateAccount(t, uc, "source")
	dest := mustCreateAccount(t, uc, "dest")
	mustCredit(t, uc, source.ID, 100)

	// 20 concurrent withdrawals of 10 against a balance of 100: exactly
	// 10 may succeed, and the source must never go negative.
	numTransfers := 20

	var (
		wg           sync.WaitGroup
		successCount atomic.Int32
	)

	wg.Add(numTransfers)
	for i := 0; i < numTransfers; i++ {
		go func() {
			defer wg.Done()
			_, err := uc.Transfer(ctx, source.ID, dest.ID, decimal.NewFromInt(10), "")
			if err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != 10 {
		t.Errorf("expected exactly 10 successful transfers, got %d", successCount.Load())
	}

	sourceAcc, err := uc.GetAccount(ctx, source.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if sourceAcc.Balance.IsNegative() {
		t.Errorf("source balance went negative: %s", sourceAcc.Balance)
	}
	if !sourceAcc.Balance.Equal(decimal.Zero) {
		t.Errorf("expected source drained to 0, got %s", sourceAcc.Balance)
	}

	destAcc, _ := uc.GetAccount(ctx, dest.ID)
	if !destAcc.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected dest balance 100, got %s", destAcc.Balance)
	}
}

func TestOpposingConcurrentTransfers(t *testing.T) {
	ctx := context.Background()
	uc, _ := newMemoryLedger()

	a := mustCreateAccount(t, uc, "alice")
	b := mustCreateAccount(t, uc, "bob")
	mustCredit(t, uc, a.ID, 100)
	mustCredit(t, uc, b.ID, 100)

	var wg sync.WaitGroup
	wg.Add(2)
	errs := make(chan error, 2)

	go func() {
		defer wg.Done()
		_, err := uc.Transfer(ctx, a.ID, b.ID, decimal.NewFromInt(30), "")
		errs <- err
	}()
	go func() {
		defer wg.Done()
		_, err := uc.Transfer(ctx, b.ID, a.ID, decimal.NewFromInt(30), "")
		errs <- err
	}()
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected transfer error: %v", err)
		}
	}

	aAcc, _ := uc.GetAccount(ctx, a.ID)
	bAcc, _ := uc.GetAccount(ctx, b.ID)

	if !aAcc.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected a balance 100, got %s", aAcc.Balance)
	}
	if !bAcc.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected b balance 100, got %s", bAcc.Balance)
	}

	history, err := uc.GetHistory(ctx, usecase.GetHistoryInput{AccountID: a.ID})
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	// seed credit plus two transfers
	if len(history) != 3 {
		t.Errorf("expected 3 records for a, got %d", len(history))
	}
}

func TestConcurrentDisjointTransfersAreDeterministic(t *testing.T) {
	ctx := context.Background()
	uc, _ := newMemoryLedger()

	numPairs := 10
	senders := make([]*domain.Account, numPairs)
	receivers := make([]*domain.Account, numPairs)

	for i := 0; i < numPairs; i++ {
		senders[i] = mustCreateAccount(t, uc, fmt.Sprintf("sender-%02d", i))
		receivers[i] = mustCreateAccount(t, uc, fmt.Sprintf("receiver-%02d", i))
		mustCredit(t, uc, senders[i].ID, 100)
	}

	var wg sync.WaitGroup
	wg.Add(numPairs)
	for i := 0; i < numPairs; i++ {
		go func(i int) {
			defer wg.Done()
			if _, err := uc.Transfer(ctx, senders[i].ID, receivers[i].ID, decimal.NewFromInt(int64(i+1)), ""); err != nil {
				t.Errorf("transfer %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	// Disjoint pairs: the outcome must equal the serial result regardless
	// of interleaving.
	for i := 0; i < numPairs; i++ {
		sender, _ := uc.GetAccount(ctx, senders[i].ID)
		receiver, _ := uc.GetAccount(ctx, receivers[i].ID)

		if !sender.Balance.Equal(decimal.NewFromInt(int64(100 - (i + 1)))) {
			t.Errorf("pair %d: expected sender balance %d, got %s", i, 100-(i+1), sender.Balance)
		}
		if !receiver.Balance.Equal(decimal.NewFromInt(int64(i + 1))) {
			t.Errorf("pair %d: expected receiver balance %d, got %s", i, i+1, receiver.Balance)
		}
	}
}

func TestCreateAccountNormalizesHandle(t *testing.T) {
	ctx := context.Background()
	uc, store := newMemoryLedger()

	account, err := uc.CreateAccount(ctx, "  dave ")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if account.Handle != "dave" {
		t.Fatalf("expected stored handle dave, got %q", account.Handle)
	}

	resolved, err := uc.GetAccount(ctx, "dave")
	if err != nil {
		t.Fatalf("lookup by trimmed handle failed: %v", err)
	}
	if resolved.ID != account.ID {
		t.Errorf("expected account %s, got %s", account.ID, resolved.ID)
	}

	if _, err := store.GetByHandle(ctx, "  dave "); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected no account stored under the padded handle, got %v", err)
	}
}

func TestGetHistoryClampsPaging(t *testing.T) {
	ctx := context.Background()
	uc, _ := newMemoryLedger()

	a := mustCreateAccount(t, uc, "alice")
	b := mustCreateAccount(t, uc, "bob")
	mustCredit(t, uc, a.ID, 100)

	if _, err := uc.Transfer(ctx, a.ID, b.ID, decimal.NewFromInt(10), ""); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	// Negative paging values are treated as the defaults, not passed
	// through to the store.
	history, err := uc.GetHistory(ctx, usecase.GetHistoryInput{AccountID: a.ID, Limit: -5, Offset: -1})
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("expected 2 records, got %d", len(history))
	}
}

func TestLogReconstructsBalances(t *testing.T) {
	ctx := context.Background()
	uc, _ := newMemoryLedger()

	a := mustCreateAccount(t, uc, "alice")
	b := mustCreateAccount(t, uc, "bob")
	mustCredit(t, uc, a.ID, 250)

	if _, err := uc.Transfer(ctx, a.ID, b.ID, decimal.NewFromInt(70), ""); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if _, err := uc.Transfer(ctx, b.ID, a.ID, decimal.NewFromInt(20), ""); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	for _, account := range []*domain.Account{a, b} {
		history, err := uc.GetHistory(ctx, usecase.GetHistoryInput{AccountID: account.ID, Limit: 100})
		if err != nil {
			t.Fatalf("history failed: %v", err)
		}

		reconstructed := decimal.Zero
		for _, r := range history {
			reconstructed = reconstructed.Add(r.AmountFor(account.ID))
		}

		current, err := uc.GetAccount(ctx, account.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}

		if !reconstructed.Equal(current.Balance) {
			t.Errorf("account %s: log sums to %s but balance is %s", account.Handle, reconstructed, current.Balance)
		}
	}
}
