// Package store persists users, accounts and ledger transactions.
//
// Two implementations are provided: PostgresLedgerStore/PostgresUserStore on
// top of database/sql and lib/pq, and MemoryStore for development and tests.
// Both apply a transaction and its balance update as a single unit while the
// account is locked, so concurrent writers to one account are serialized and
// writers to different accounts are not.
package store

import "github.com/ruralpay/ledger/internal/models"

// PrepareFunc inspects the locked account and returns the transaction to
// append. Returning an error aborts the unit without writing anything.
type PrepareFunc func(account models.Account) (*models.Transaction, error)
