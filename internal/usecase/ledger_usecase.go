package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nexusbank/ledger/internal/domain"
	"github.com/nexusbank/ledger/internal/infrastructure/metrics"
)

// ErrInconsistentLedger is returned when account balances no longer match
// the sum of admin credits.
var ErrInconsistentLedger = errors.New("ledger is inconsistent: balances do not match credited total")

// LedgerUseCase orchestrates balance mutations and the transaction log.
// It is the only component that writes to either; every mutation happens
// inside a single storage transaction together with exactly one log record.
type LedgerUseCase struct {
	txManager TransactionManager
	accounts  AccountStore
	records   TransactionLog
	totals    LedgerTotals
	idGen     IDGenerator
	notifier  Notifier
	metrics   *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase. notifier and m may be nil.
func NewLedgerUseCase(
	txManager TransactionManager,
	accounts AccountStore,
	records TransactionLog,
	totals LedgerTotals,
	idGen IDGenerator,
	notifier Notifier,
	m *metrics.Metrics,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager: txManager,
		accounts:  accounts,
		records:   records,
		totals:    totals,
		idGen:     idGen,
		notifier:  notifier,
		metrics:   m,
	}
}

// TransferResult holds the post-commit balances of both parties.
type TransferResult struct {
	Record          *domain.TransactionRecord
	SenderBalance   decimal.Decimal
	ReceiverBalance decimal.Decimal
}

// CreditResult holds the post-commit balance of the credited account.
type CreditResult struct {
	Record  *domain.TransactionRecord
	Balance decimal.Decimal
}

// CreateAccount registers a new account with a zero balance.
func (uc *LedgerUseCase) CreateAccount(ctx context.Context, handle string) (*domain.Account, error) {
	handle = domain.NormalizeHandle(handle)
	if err := domain.ValidateHandle(handle); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:        uc.idGen.Generate(),
		Handle:    handle,
		Balance:   decimal.Zero,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsCreated.Inc()
	}

	uc.notify(ctx, domain.Notification{
		EventType: domain.EventTypeAccountCreated,
		Payload: domain.AccountCreatedEvent{
			AccountID: account.ID,
			Handle:    account.Handle,
		},
	})

	return account, nil
}

// GetAccount resolves an account by id first, then by handle.
func (uc *LedgerUseCase) GetAccount(ctx context.Context, idOrHandle string) (*domain.Account, error) {
	account, err := uc.accounts.GetByID(ctx, idOrHandle)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	return uc.accounts.GetByHandle(ctx, idOrHandle)
}

// Transfer moves amount from sender to receiver and appends one record,
// all inside a single transaction. On any failure nothing is persisted.
func (uc *LedgerUseCase) Transfer(ctx context.Context, senderID, receiverID string, amount decimal.Decimal, description string) (*TransferResult, error) {
	result, err := uc.transfer(ctx, senderID, receiverID, amount, description)
	if uc.metrics != nil && err != nil {
		uc.metrics.TransferErrors.WithLabelValues(transferErrorType(err)).Inc()
	}
	return result, err
}

func (uc *LedgerUseCase) transfer(ctx context.Context, senderID, receiverID string, amount decimal.Decimal, description string) (*TransferResult, error) {
	start := time.Now()

	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	if senderID == receiverID {
		return nil, domain.ErrSameAccount
	}

	// Lock both accounts in ascending id order so two transfers over the
	// same pair in opposite directions cannot deadlock.
	ids := []string{senderID, receiverID}
	sort.Strings(ids)

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	accounts, err := uc.accounts.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	if len(accounts) != len(ids) {
		return nil, domain.ErrAccountNotFound
	}

	var sender, receiver *domain.Account
	for _, a := range accounts {
		switch a.ID {
		case senderID:
			sender = a
		case receiverID:
			receiver = a
		}
	}

	if sender == nil || receiver == nil {
		return nil, domain.ErrAccountNotFound
	}

	if err := sender.ValidateDebit(amount); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	senderBalance := sender.ApplyDebit(amount)
	receiverBalance := receiver.ApplyCredit(amount)

	if err := uc.accounts.UpdateBalance(ctx, tx, sender.ID, senderBalance, now); err != nil {
		return nil, err
	}

	if err := uc.accounts.UpdateBalance(ctx, tx, receiver.ID, receiverBalance, now); err != nil {
		return nil, err
	}

	record := &domain.TransactionRecord{
		ID:          uc.idGen.Generate(),
		SenderID:    &sender.ID,
		ReceiverID:  receiver.ID,
		Amount:      amount,
		Description: domain.TruncateDescription(description),
		CreatedAt:   now,
	}

	if err := uc.records.Append(ctx, tx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransfersCompleted.Inc()
		uc.metrics.TransferDuration.Observe(time.Since(start).Seconds())
		uc.metrics.TransferAmount.Observe(amount.InexactFloat64())
	}

	uc.notify(ctx, domain.Notification{
		EventType: domain.EventTypeTransferCompleted,
		Payload: domain.TransferCompletedEvent{
			RecordID:    record.ID,
			SenderID:    sender.ID,
			ReceiverID:  receiver.ID,
			Amount:      amount.String(),
			Description: record.Description,
		},
	})

	return &TransferResult{
		Record:          record,
		SenderBalance:   senderBalance,
		ReceiverBalance: receiverBalance,
	}, nil
}

// AdminCredit credits an account out of thin air. Authorization is the
// caller's responsibility; the ledger only records an absent sender.
func (uc *LedgerUseCase) AdminCredit(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*CreditResult, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	accounts, err := uc.accounts.GetByIDsForUpdate(ctx, tx, []string{accountID})
	if err != nil {
		return nil, err
	}

	if len(accounts) != 1 {
		return nil, domain.ErrAccountNotFound
	}

	account := accounts[0]
	now := time.Now().UTC()
	balance := account.ApplyCredit(amount)

	if err := uc.accounts.UpdateBalance(ctx, tx, account.ID, balance, now); err != nil {
		return nil, err
	}

	record := &domain.TransactionRecord{
		ID:          uc.idGen.Generate(),
		ReceiverID:  account.ID,
		Amount:      amount,
		Description: domain.TruncateDescription(description),
		CreatedAt:   now,
	}

	if err := uc.records.Append(ctx, tx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.CreditsApplied.Inc()
	}

	uc.notify(ctx, domain.Notification{
		EventType: domain.EventTypeAccountCredited,
		Payload: domain.AccountCreditedEvent{
			RecordID:    record.ID,
			AccountID:   account.ID,
			Amount:      amount.String(),
			Description: record.Description,
		},
	})

	return &CreditResult{Record: record, Balance: balance}, nil
}

// GetHistoryInput represents input for listing an account's history.
type GetHistoryInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// GetHistory lists an account's transaction records, newest first.
func (uc *LedgerUseCase) GetHistory(ctx context.Context, input GetHistoryInput) ([]*domain.TransactionRecord, error) {
	if _, err := uc.accounts.GetByID(ctx, input.AccountID); err != nil {
		return nil, err
	}

	if input.Limit <= 0 {
		input.Limit = 20
	}

	if input.Limit > 100 {
		input.Limit = 100
	}

	if input.Offset < 0 {
		input.Offset = 0
	}

	return uc.records.ListByAccount(ctx, input.AccountID, input.Limit, input.Offset)
}

// CheckConsistency verifies the conservation invariant: money only enters
// through admin credits, so the sum of balances must equal the credited
// total.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (bool, error) {
	totalBalance, totalCredited, err := uc.totals.ConservationTotals(ctx)
	if err != nil {
		return false, err
	}

	if !totalBalance.Equal(totalCredited) {
		return false, ErrInconsistentLedger
	}

	return true, nil
}

func (uc *LedgerUseCase) notify(ctx context.Context, n domain.Notification) {
	if uc.notifier == nil {
		return
	}
	uc.notifier.Notify(ctx, n)
}

func transferErrorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, domain.ErrSameAccount):
		return "same_account"
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrAmountTooLarge):
		return "invalid_amount"
	default:
		return "internal"
	}
}
