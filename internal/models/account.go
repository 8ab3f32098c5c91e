package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a current account owned by exactly one user.
type Account struct {
	ID        int64           `json:"id" db:"id"`
	OwnerID   int64           `json:"owner_id" db:"owner_id"`
	Balance   decimal.Decimal `json:"balance" db:"balance"`
	Version   int64           `json:"-" db:"version"` // for optimistic locking
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
