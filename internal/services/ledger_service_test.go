package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ruralpay/ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAccountLedger_CreateAndList(t *testing.T) {
	f := newEngineFixture(testOptions(), nil)
	ctx := context.Background()

	none, err := f.ledger.ListAccounts(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	first, err := f.ledger.CreateAccount(ctx, 1)
	require.NoError(t, err)
	assert.True(t, first.Balance.IsZero())
	assert.Equal(t, int64(1), first.OwnerID)

	second, err := f.ledger.CreateAccount(ctx, 1)
	require.NoError(t, err)
	_, err = f.ledger.CreateAccount(ctx, 2)
	require.NoError(t, err)

	accounts, err := f.ledger.ListAccounts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, first.ID, accounts[0].ID)
	assert.Equal(t, second.ID, accounts[1].ID)

	_, err = f.ledger.GetAccount(ctx, 12345)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountLedger_ListAccountTransactionsIsStable(t *testing.T) {
	f := newEngineFixture(testOptions(), nil)
	ctx := context.Background()

	account, err := f.ledger.CreateAccount(ctx, 1)
	require.NoError(t, err)
	for _, amount := range []string{"10", "20.50", "-5.25", "3"} {
		_, err := f.engine.CreateTransaction(ctx, 1, account.ID, dec(amount))
		require.NoError(t, err)
	}

	first, err := f.ledger.ListAccountTransactions(ctx, 1, account.ID)
	require.NoError(t, err)
	require.Len(t, first, 4)
	for i := 1; i < len(first); i++ {
		assert.Less(t, first[i-1].ID, first[i].ID)
	}

	_, err = f.engine.CreateTransaction(ctx, 1, account.ID, dec("1"))
	require.NoError(t, err)

	second, err := f.ledger.ListAccountTransactions(ctx, 1, account.ID)
	require.NoError(t, err)
	require.Len(t, second, 5)
	assert.Equal(t, first, second[:4], "existing transactions never change")
	assert.Equal(t, "29.25", second[4].ResultingBalance.StringFixed(2))
}

func TestAccountLedger_StorageFailures(t *testing.T) {
	ledgerStore := &MockLedgerStore{}
	ledger := NewAccountLedger(ledgerStore, SystemClock{}, testOptions())
	ctx := context.Background()
	down := errors.New("connection refused")

	ledgerStore.On("CreateAccount", mock.Anything, int64(1), mock.AnythingOfType("time.Time")).Return(nil, down).Once()
	ledgerStore.On("ListAccounts", mock.Anything, int64(1)).Return(nil, down).Once()
	ledgerStore.On("GetAccount", mock.Anything, int64(2)).Return(nil, down).Once()
	ledgerStore.On("GetAccount", mock.Anything, int64(3)).Return(&models.Account{ID: 3, OwnerID: 1, CreatedAt: time.Now()}, nil).Once()
	ledgerStore.On("ListTransactions", mock.Anything, int64(3)).Return(nil, down).Once()

	_, err := ledger.CreateAccount(ctx, 1)
	assert.Equal(t, KindInfrastructure, KindOf(err))
	assert.ErrorIs(t, err, down)

	_, err = ledger.ListAccounts(ctx, 1)
	assert.Equal(t, KindInfrastructure, KindOf(err))

	_, err = ledger.GetAccount(ctx, 2)
	assert.Equal(t, KindInfrastructure, KindOf(err))

	_, err = ledger.ListAccountTransactions(ctx, 1, 3)
	assert.Equal(t, KindInfrastructure, KindOf(err))

	ledgerStore.AssertExpectations(t)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(nil))
	assert.Equal(t, KindAuth, KindOf(&AuthError{Kind: AuthExpired}))
	assert.Equal(t, KindAuth, KindOf(ErrAuthFailed))
	assert.Equal(t, KindBusiness, KindOf(ErrInsufficientFunds))
	assert.Equal(t, KindBusiness, KindOf(ErrForbidden))
	assert.Equal(t, KindInfrastructure, KindOf(&InfrastructureError{Op: "x", Err: errors.New("y")}))

	assert.ErrorIs(t, &AuthError{Kind: AuthExpired}, ErrUnauthenticated)
	assert.NotErrorIs(t, &AuthError{Kind: AuthExpired}, &AuthError{Kind: AuthMalformed})
}
