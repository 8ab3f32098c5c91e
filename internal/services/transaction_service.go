package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/ruralpay/ledger/internal/audit"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/store"
	"github.com/shopspring/decimal"
)

const amountPlaces = 2

// maxMagnitude is the smallest absolute value a NUMERIC(20,2) column cannot
// hold. Amounts and balances must stay below it.
var maxMagnitude = decimal.New(1, 18)

// TransactionEngine applies deposits and withdrawals to accounts.
type TransactionEngine struct {
	store  LedgerStore
	clock  Clock
	opts   LedgerOptions
	audit  *audit.Logger
	events EventPublisher
}

// NewTransactionEngine wires the engine. events may be nil.
func NewTransactionEngine(ledgerStore LedgerStore, clock Clock, opts LedgerOptions, auditLogger *audit.Logger, events EventPublisher) *TransactionEngine {
	return &TransactionEngine{
		store:  ledgerStore,
		clock:  clock,
		opts:   opts,
		audit:  auditLogger,
		events: events,
	}
}

// CreateTransaction appends a signed amount to accountID on behalf of userID
// and moves the balance with it. Positive amounts deposit, negative amounts
// withdraw; a withdrawal may not take the balance below zero.
//
// The ownership check, the funds check and the write happen while the account
// is locked, so concurrent calls on one account are linearized. The unit runs
// detached from ctx's cancellation with its own storage timeout: a caller
// going away never interrupts a commit halfway, and a timeout rolls the whole
// unit back.
func (e *TransactionEngine) CreateTransaction(ctx context.Context, userID, accountID int64, amount decimal.Decimal) (*models.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		e.audit.LogRejection(userID, accountID, amount, err)
		return nil, err
	}

	prepare := func(account models.Account) (*models.Transaction, error) {
		if account.OwnerID != userID {
			return nil, e.opts.foreignAccountError()
		}

		newBalance := account.Balance.Add(amount)
		if amount.IsNegative() && newBalance.IsNegative() {
			return nil, ErrInsufficientFunds
		}
		if newBalance.Abs().GreaterThanOrEqual(maxMagnitude) {
			return nil, ErrInvalidAmount
		}

		return &models.Transaction{
			AccountID:        account.ID,
			Amount:           amount,
			ResultingBalance: newBalance,
			Kind:             models.KindForAmount(amount),
			CreatedAt:        e.clock.Now(),
		}, nil
	}

	tx, err := e.applyWithRetry(ctx, accountID, prepare)
	if err != nil {
		return nil, e.reject(userID, accountID, amount, err)
	}

	log.Printf("[TRANSACTION] %s of %s on account %d committed as %d, balance %s",
		tx.Kind, tx.Amount.StringFixed(amountPlaces), tx.AccountID, tx.ID, tx.ResultingBalance.StringFixed(amountPlaces))
	e.audit.LogTransaction(userID, tx)
	e.publish(ctx, userID, tx)

	return tx, nil
}

func (e *TransactionEngine) applyWithRetry(ctx context.Context, accountID int64, prepare store.PrepareFunc) (*models.Transaction, error) {
	unitCtx := context.WithoutCancel(ctx)

	for attempt := 0; ; attempt++ {
		storageCtx, cancel := e.opts.storageContext(unitCtx)
		tx, err := e.store.Apply(storageCtx, accountID, prepare)
		cancel()

		if err == nil || !store.IsRetryable(err) || attempt >= e.opts.MaxRetries {
			return tx, err
		}

		log.Printf("[TRANSACTION] Conflict on account %d (attempt %d/%d), retrying: %v",
			accountID, attempt+1, e.opts.MaxRetries, err)

		// Nothing has been written yet, so a departed caller can stop here.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.opts.RetryBackoff * time.Duration(attempt+1)):
		}
	}
}

func (e *TransactionEngine) reject(userID, accountID int64, amount decimal.Decimal, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		err = ErrAccountNotFound
	case KindOf(err) == KindBusiness:
	default:
		log.Printf("[TRANSACTION] Storage failure on account %d: %v", accountID, err)
		e.audit.LogError(userID, accountID, err)
		return infraError("create transaction", err)
	}

	log.Printf("[TRANSACTION] Rejected %s on account %d for user %d: %v", amount.String(), accountID, userID, err)
	e.audit.LogRejection(userID, accountID, amount, err)
	return err
}

func (e *TransactionEngine) publish(ctx context.Context, userID int64, tx *models.Transaction) {
	if e.events == nil {
		return
	}

	ctx, cancel := e.opts.storageContext(context.WithoutCancel(ctx))
	defer cancel()

	event := models.TransactionEvent{
		EventID:     uuid.NewString(),
		OwnerID:     userID,
		Transaction: *tx,
	}
	if err := e.events.Publish(ctx, event); err != nil {
		log.Printf("[TRANSACTION] Failed to publish event for transaction %d: %v", tx.ID, err)
	}
}

func validateAmount(amount decimal.Decimal) error {
	if amount.IsZero() || !amount.Equal(amount.Round(amountPlaces)) || amount.Abs().GreaterThanOrEqual(maxMagnitude) {
		return ErrInvalidAmount
	}
	return nil
}
