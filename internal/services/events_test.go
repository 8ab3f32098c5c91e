package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisEventPublisher_Publish(t *testing.T) {
	client, mock := redismock.NewClientMock()
	publisher := NewRedisEventPublisher(client, "ledger:transaction_events")

	event := models.TransactionEvent{
		EventID: "evt-1",
		OwnerID: 1,
		Transaction: models.Transaction{
			ID:               10,
			AccountID:        2,
			Amount:           dec("50.00"),
			ResultingBalance: dec("150.00"),
			Kind:             models.TransactionKindDeposit,
			CreatedAt:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	data, err := json.Marshal(event)
	require.NoError(t, err)

	t.Run("pushes to the queue", func(t *testing.T) {
		mock.ExpectRPush("ledger:transaction_events", data).SetVal(1)

		assert.NoError(t, publisher.Publish(context.Background(), event))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("surfaces redis errors", func(t *testing.T) {
		mock.ExpectRPush("ledger:transaction_events", data).SetErr(errors.New("READONLY"))

		assert.Error(t, publisher.Publish(context.Background(), event))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
