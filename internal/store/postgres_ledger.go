package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ruralpay/ledger/internal/models"
	"github.com/shopspring/decimal"
)

type PostgresLedgerStore struct {
	db *sql.DB
}

func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{db: db}
}

const accountColumns = "id, owner_id, balance, version, created_at"

func (s *PostgresLedgerStore) CreateAccount(ctx context.Context, ownerID int64, createdAt time.Time) (*models.Account, error) {
	account := models.Account{
		OwnerID:   ownerID,
		Balance:   decimal.Zero,
		Version:   1,
		CreatedAt: createdAt,
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO accounts (owner_id, balance, version, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		ownerID, account.Balance, account.Version, createdAt).Scan(&account.ID)
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return &account, nil
}

func (s *PostgresLedgerStore) ListAccounts(ctx context.Context, ownerID int64) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE owner_id = $1
		ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Balance, &a.Version, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

func (s *PostgresLedgerStore) GetAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	var a models.Account
	err := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1`, accountID).Scan(&a.ID, &a.OwnerID, &a.Balance, &a.Version, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select account %d: %w", accountID, err)
	}
	return &a, nil
}

// ListTransactions returns the account's ledger oldest first. Ids are
// assigned by a sequence in commit order, so ordering by id is stable.
func (s *PostgresLedgerStore) ListTransactions(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, amount, resulting_balance, kind, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txs := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		var kind string
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Amount, &t.ResultingBalance, &kind, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Kind = models.TransactionKind(kind)
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// Apply locks the account row, lets prepare decide on the transaction and
// writes the transaction row and the new balance in one database transaction.
// Any error, including ctx expiring, rolls the whole unit back.
func (s *PostgresLedgerStore) Apply(ctx context.Context, accountID int64, prepare PrepareFunc) (*models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	account, err := s.lockAccount(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	entry, err := prepare(*account)
	if err != nil {
		return nil, err
	}

	if err := s.insertTransaction(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := s.updateAccountBalance(ctx, tx, account.ID, entry.ResultingBalance, account.Version); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return entry, nil
}

func (s *PostgresLedgerStore) lockAccount(ctx context.Context, tx *sql.Tx, accountID int64) (*models.Account, error) {
	var a models.Account
	err := tx.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
		FOR UPDATE`, accountID).Scan(&a.ID, &a.OwnerID, &a.Balance, &a.Version, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock account %d: %w", accountID, err)
	}
	return &a, nil
}

func (s *PostgresLedgerStore) insertTransaction(ctx context.Context, tx *sql.Tx, entry *models.Transaction) error {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO transactions (account_id, amount, resulting_balance, kind, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		entry.AccountID, entry.Amount, entry.ResultingBalance, string(entry.Kind), entry.CreatedAt).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *PostgresLedgerStore) updateAccountBalance(ctx context.Context, tx *sql.Tx, accountID int64, newBalance decimal.Decimal, version int64) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $1, version = version + 1
		WHERE id = $2 AND version = $3`,
		newBalance, accountID, version)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("account %d: %w", accountID, ErrConcurrentUpdate)
	}

	return nil
}
