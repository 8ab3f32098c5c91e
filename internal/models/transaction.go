package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind is derived from the sign of the amount
type TransactionKind string

const (
	TransactionKindDeposit    TransactionKind = "deposit"
	TransactionKindWithdrawal TransactionKind = "withdrawal"
)

// KindForAmount returns deposit for positive amounts and withdrawal otherwise.
func KindForAmount(amount decimal.Decimal) TransactionKind {
	if amount.IsNegative() {
		return TransactionKindWithdrawal
	}
	return TransactionKindDeposit
}

// Transaction is an immutable ledger line. Amount is signed: positive credits
// the account, negative debits it.
type Transaction struct {
	ID               int64           `json:"id" db:"id"`
	AccountID        int64           `json:"account_id" db:"account_id"`
	Amount           decimal.Decimal `json:"amount" db:"amount"`
	ResultingBalance decimal.Decimal `json:"resulting_balance" db:"resulting_balance"`
	Kind             TransactionKind `json:"kind" db:"kind"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}

// TransactionEvent is published after a transaction commits.
type TransactionEvent struct {
	EventID     string      `json:"event_id"`
	OwnerID     int64       `json:"owner_id"`
	Transaction Transaction `json:"transaction"`
}
