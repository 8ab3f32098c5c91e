package services

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/ruralpay/ledger/internal/audit"
	"github.com/ruralpay/ledger/internal/config"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/store"
	"github.com/stretchr/testify/mock"
)

type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockLedgerStore struct {
	mock.Mock
}

func (m *MockLedgerStore) CreateAccount(ctx context.Context, ownerID int64, createdAt time.Time) (*models.Account, error) {
	args := m.Called(ctx, ownerID, createdAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockLedgerStore) ListAccounts(ctx context.Context, ownerID int64) ([]models.Account, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Account), args.Error(1)
}

func (m *MockLedgerStore) GetAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockLedgerStore) ListTransactions(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *MockLedgerStore) Apply(ctx context.Context, accountID int64, prepare store.PrepareFunc) (*models.Transaction, error) {
	args := m.Called(ctx, accountID, prepare)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event models.TransactionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func discardAudit() *audit.Logger {
	return audit.New(log.New(io.Discard, "", 0), time.Now)
}

func testArgon2() config.Argon2Config {
	return config.Argon2Config{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLength: 32, SaltLength: 16}
}

func testOptions() LedgerOptions {
	return LedgerOptions{
		StorageTimeout:      time.Second,
		HideForeignAccounts: true,
		MaxRetries:          3,
		RetryBackoff:        time.Millisecond,
	}
}
