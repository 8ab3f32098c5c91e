package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresUserStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresUserStore(db)
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("find by username", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username, password_hash, created_at FROM users WHERE username = \\$1").
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at"}).
				AddRow(1, "alice", "hash", now))

		u, err := store.FindUserByUsername(ctx, "Alice")
		require.NoError(t, err)
		assert.Equal(t, int64(1), u.ID)
		assert.Equal(t, "hash", u.PasswordHash)
	})

	t.Run("unknown username", func(t *testing.T) {
		mock.ExpectQuery("FROM users WHERE username").
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at"}))

		_, err := store.FindUserByUsername(ctx, "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("create user", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO users").
			WithArgs("bob", "hash", now).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))

		u, err := store.CreateUser(ctx, "Bob", "hash", now)
		require.NoError(t, err)
		assert.Equal(t, int64(2), u.ID)
		assert.Equal(t, "bob", u.Username)
	})

	t.Run("duplicate username", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO users").
			WithArgs("bob", "hash", now).
			WillReturnError(&pq.Error{Code: "23505"})

		_, err := store.CreateUser(ctx, "bob", "hash", now)
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
