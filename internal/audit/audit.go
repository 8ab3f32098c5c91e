package audit

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/shopspring/decimal"
)

const (
	EventTransaction = "TRANSACTION"
	EventRejected    = "REJECTED"
	EventError       = "ERROR"
	EventLoginFailed = "LOGIN_FAILED"
)

type Event struct {
	EventID       string    `json:"event_id"`
	Timestamp     time.Time `json:"timestamp"`
	EventType     string    `json:"event_type"`
	TransactionID int64     `json:"transaction_id,omitempty"`
	AccountID     int64     `json:"account_id,omitempty"`
	UserID        int64     `json:"user_id,omitempty"`
	Amount        string    `json:"amount,omitempty"`
	Status        string    `json:"status"`
	Details       any       `json:"details,omitempty"`
}

// Logger writes one "AUDIT: {json}" line per event.
type Logger struct {
	out *log.Logger
	now func() time.Time
}

func NewLogger() *Logger {
	return New(log.Default(), time.Now)
}

func New(out *log.Logger, now func() time.Time) *Logger {
	return &Logger{out: out, now: now}
}

func (a *Logger) LogTransaction(userID int64, tx *models.Transaction) {
	a.log(Event{
		EventType:     EventTransaction,
		TransactionID: tx.ID,
		AccountID:     tx.AccountID,
		UserID:        userID,
		Amount:        tx.Amount.StringFixed(2),
		Status:        "SUCCESS",
		Details: map[string]string{
			"kind":              string(tx.Kind),
			"resulting_balance": tx.ResultingBalance.StringFixed(2),
		},
	})
}

func (a *Logger) LogRejection(userID, accountID int64, amount decimal.Decimal, reason error) {
	a.log(Event{
		EventType: EventRejected,
		AccountID: accountID,
		UserID:    userID,
		Amount:    amount.String(),
		Status:    "REJECTED",
		Details:   map[string]string{"reason": reason.Error()},
	})
}

func (a *Logger) LogError(userID, accountID int64, err error) {
	a.log(Event{
		EventType: EventError,
		AccountID: accountID,
		UserID:    userID,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *Logger) LogLoginFailure(username string) {
	a.log(Event{
		EventType: EventLoginFailed,
		Status:    "FAILED",
		Details:   map[string]string{"username": username},
	})
}

func (a *Logger) log(event Event) {
	event.EventID = uuid.NewString()
	event.Timestamp = a.now().UTC()
	data, _ := json.Marshal(event)
	a.out.Printf("AUDIT: %s", string(data))
}
