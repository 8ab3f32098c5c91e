package services

import (
	"context"
	"time"

	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/store"
)

// CredentialStore looks users up by username. It returns store.ErrNotFound
// for unknown usernames.
type CredentialStore interface {
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// LedgerStore is the persistence the account ledger and transaction engine
// run on. Apply must write the transaction and the balance as one unit while
// the account is locked. store.PostgresLedgerStore and store.MemoryStore
// implement it.
type LedgerStore interface {
	CreateAccount(ctx context.Context, ownerID int64, createdAt time.Time) (*models.Account, error)
	ListAccounts(ctx context.Context, ownerID int64) ([]models.Account, error)
	GetAccount(ctx context.Context, accountID int64) (*models.Account, error)
	ListTransactions(ctx context.Context, accountID int64) ([]models.Transaction, error)
	Apply(ctx context.Context, accountID int64, prepare store.PrepareFunc) (*models.Transaction, error)
}

// LedgerOptions configures the account ledger and the transaction engine.
type LedgerOptions struct {
	// StorageTimeout bounds every storage call.
	StorageTimeout time.Duration
	// HideForeignAccounts reports another user's account as not found
	// instead of forbidden.
	HideForeignAccounts bool
	MaxRetries          int
	RetryBackoff        time.Duration
}

func (o LedgerOptions) foreignAccountError() error {
	if o.HideForeignAccounts {
		return ErrAccountNotFound
	}
	return ErrForbidden
}

func (o LedgerOptions) storageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.StorageTimeout)
}
