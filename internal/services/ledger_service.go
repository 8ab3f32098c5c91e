package services

import (
	"context"
	"errors"
	"log"

	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/store"
)

// AccountLedger owns account records and read access to their transactions.
// Balances are only ever changed by TransactionEngine.
type AccountLedger struct {
	store LedgerStore
	clock Clock
	opts  LedgerOptions
}

func NewAccountLedger(ledgerStore LedgerStore, clock Clock, opts LedgerOptions) *AccountLedger {
	return &AccountLedger{
		store: ledgerStore,
		clock: clock,
		opts:  opts,
	}
}

// CreateAccount opens a zero-balance account for ownerID.
func (l *AccountLedger) CreateAccount(ctx context.Context, ownerID int64) (*models.Account, error) {
	ctx, cancel := l.opts.storageContext(ctx)
	defer cancel()

	account, err := l.store.CreateAccount(ctx, ownerID, l.clock.Now())
	if err != nil {
		log.Printf("[LEDGER] Account creation failed for user %d: %v", ownerID, err)
		return nil, infraError("create account", err)
	}

	log.Printf("[LEDGER] Account %d created for user %d", account.ID, ownerID)
	return account, nil
}

// ListAccounts returns ownerID's accounts by creation time. A user without
// accounts gets an empty slice.
func (l *AccountLedger) ListAccounts(ctx context.Context, ownerID int64) ([]models.Account, error) {
	ctx, cancel := l.opts.storageContext(ctx)
	defer cancel()

	accounts, err := l.store.ListAccounts(ctx, ownerID)
	if err != nil {
		return nil, infraError("list accounts", err)
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	return accounts, nil
}

func (l *AccountLedger) GetAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	ctx, cancel := l.opts.storageContext(ctx)
	defer cancel()

	account, err := l.store.GetAccount(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, infraError("get account", err)
	}
	return account, nil
}

// ListTransactions returns the account's ledger oldest first, ordered by id.
func (l *AccountLedger) ListTransactions(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	ctx, cancel := l.opts.storageContext(ctx)
	defer cancel()

	txs, err := l.store.ListTransactions(ctx, accountID)
	if err != nil {
		return nil, infraError("list transactions", err)
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs, nil
}

// ListAccountTransactions is ListTransactions for a caller that must own
// the account.
func (l *AccountLedger) ListAccountTransactions(ctx context.Context, ownerID, accountID int64) ([]models.Transaction, error) {
	account, err := l.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.OwnerID != ownerID {
		log.Printf("[LEDGER] User %d denied access to account %d", ownerID, accountID)
		return nil, l.opts.foreignAccountError()
	}
	return l.ListTransactions(ctx, accountID)
}
