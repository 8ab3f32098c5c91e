package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ruralpay/ledger/internal/models"
	"github.com/shopspring/decimal"
)

// MemoryStore keeps users, accounts and transactions in process memory.
// The index maps are guarded by mu; each account carries its own lock so
// writers to different accounts never wait on each other.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	accounts map[int64]*memoryAccount

	nextUserID    atomic.Int64
	nextAccountID atomic.Int64
	nextTxID      atomic.Int64
}

// memoryAccount is locked through a one-slot channel so waiting for the
// lock gives up when ctx is done.
type memoryAccount struct {
	lock         chan struct{}
	account      models.Account
	transactions []models.Transaction
}

func newMemoryAccount(account models.Account) *memoryAccount {
	return &memoryAccount{
		lock:    make(chan struct{}, 1),
		account: account,
	}
}

func (a *memoryAccount) acquire(ctx context.Context) error {
	select {
	case a.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *memoryAccount) release() { <-a.lock }

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*models.User),
		accounts: make(map[int64]*memoryAccount),
	}
}

func (s *MemoryStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[strings.ToLower(username)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, username, passwordHash string, createdAt time.Time) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := strings.ToLower(username)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[key]; exists {
		return nil, ErrDuplicate
	}
	u := &models.User{
		ID:           s.nextUserID.Add(1),
		Username:     key,
		PasswordHash: passwordHash,
		CreatedAt:    createdAt,
	}
	s.users[key] = u
	cp := *u
	return &cp, nil
}

// DeleteUser removes a user; accounts and tokens issued to it are left as is.
func (s *MemoryStore) DeleteUser(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, strings.ToLower(username))
}

func (s *MemoryStore) CreateAccount(ctx context.Context, ownerID int64, createdAt time.Time) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	acc := newMemoryAccount(models.Account{
		ID:        s.nextAccountID.Add(1),
		OwnerID:   ownerID,
		Balance:   decimal.Zero,
		Version:   1,
		CreatedAt: createdAt,
	})

	s.mu.Lock()
	s.accounts[acc.account.ID] = acc
	s.mu.Unlock()

	cp := acc.account
	return &cp, nil
}

func (s *MemoryStore) ListAccounts(ctx context.Context, ownerID int64) ([]models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	owned := make([]*memoryAccount, 0)
	for _, acc := range s.accounts {
		if acc.account.OwnerID == ownerID {
			owned = append(owned, acc)
		}
	}
	s.mu.RUnlock()

	accounts := make([]models.Account, 0, len(owned))
	for _, acc := range owned {
		if err := acc.acquire(ctx); err != nil {
			return nil, err
		}
		accounts = append(accounts, acc.account)
		acc.release()
	}
	sort.Slice(accounts, func(i, j int) bool {
		if !accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
		}
		return accounts[i].ID < accounts[j].ID
	})
	return accounts, nil
}

func (s *MemoryStore) GetAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	acc, ok := s.lookup(accountID)
	if !ok {
		return nil, ErrNotFound
	}
	if err := acc.acquire(ctx); err != nil {
		return nil, err
	}
	cp := acc.account
	acc.release()
	return &cp, nil
}

func (s *MemoryStore) ListTransactions(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	acc, ok := s.lookup(accountID)
	if !ok {
		return []models.Transaction{}, nil
	}
	if err := acc.acquire(ctx); err != nil {
		return nil, err
	}
	defer acc.release()

	txs := make([]models.Transaction, len(acc.transactions))
	copy(txs, acc.transactions)
	return txs, nil
}

// Apply holds the account's lock across prepare and the write, which is the
// in-memory equivalent of SELECT ... FOR UPDATE. Waiting for the lock is
// bounded by ctx.
func (s *MemoryStore) Apply(ctx context.Context, accountID int64, prepare PrepareFunc) (*models.Transaction, error) {
	acc, ok := s.lookup(accountID)
	if !ok {
		return nil, ErrNotFound
	}

	if err := acc.acquire(ctx); err != nil {
		return nil, err
	}
	defer acc.release()

	// the lock may have been won in the same instant ctx expired
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry, err := prepare(acc.account)
	if err != nil {
		return nil, err
	}

	entry.ID = s.nextTxID.Add(1)
	acc.transactions = append(acc.transactions, *entry)
	acc.account.Balance = entry.ResultingBalance
	acc.account.Version++

	cp := *entry
	return &cp, nil
}

func (s *MemoryStore) lookup(accountID int64) (*memoryAccount, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[accountID]
	return acc, ok
}
