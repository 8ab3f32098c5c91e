package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestAuthService(t *testing.T, users CredentialStore, clock Clock) (*AuthService, *PasswordHasher) {
	t.Helper()
	tokens, err := NewTokenService(testJWTConfig(), clock)
	require.NoError(t, err)
	hasher := NewPasswordHasher(testArgon2())
	service, err := NewAuthService(users, tokens, hasher, discardAudit(), testOptions().StorageTimeout)
	require.NoError(t, err)
	return service, hasher
}

func TestAuthService_IssueToken(t *testing.T) {
	users := &MockCredentialStore{}
	service, hasher := newTestAuthService(t, users, newManualClock())

	hash, err := hasher.Hash("password123")
	require.NoError(t, err)
	alice := &models.User{ID: 1, Username: "alice", PasswordHash: hash}

	t.Run("successful login", func(t *testing.T) {
		users.On("FindUserByUsername", mock.Anything, "alice").Return(alice, nil).Once()

		token, err := service.IssueToken(context.Background(), "alice", "password123")
		require.NoError(t, err)
		assert.NotEmpty(t, token.AccessToken)
		assert.Equal(t, TokenTypeBearer, token.TokenType)
	})

	t.Run("wrong password", func(t *testing.T) {
		users.On("FindUserByUsername", mock.Anything, "alice").Return(alice, nil).Once()

		_, err := service.IssueToken(context.Background(), "alice", "wrong")
		assert.ErrorIs(t, err, ErrAuthFailed)
		assert.Equal(t, KindAuth, KindOf(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		users.On("FindUserByUsername", mock.Anything, "ghost").Return(nil, store.ErrNotFound).Once()

		_, err := service.IssueToken(context.Background(), "ghost", "password123")
		assert.ErrorIs(t, err, ErrAuthFailed)
	})

	t.Run("credential store down", func(t *testing.T) {
		users.On("FindUserByUsername", mock.Anything, "alice").Return(nil, errors.New("connection refused")).Once()

		_, err := service.IssueToken(context.Background(), "alice", "password123")
		var infra *InfrastructureError
		assert.ErrorAs(t, err, &infra)
		assert.Equal(t, KindInfrastructure, KindOf(err))
	})

	users.AssertExpectations(t)
}

func TestAuthService_VerifyToken(t *testing.T) {
	memory := store.NewMemoryStore()
	clock := newManualClock()
	service, hasher := newTestAuthService(t, memory, clock)

	hash, err := hasher.Hash("password123")
	require.NoError(t, err)
	_, err = memory.CreateUser(context.Background(), "alice", hash, clock.Now())
	require.NoError(t, err)

	token, err := service.IssueToken(context.Background(), "alice", "password123")
	require.NoError(t, err)

	t.Run("resolves user before expiry", func(t *testing.T) {
		user, err := service.VerifyToken(context.Background(), token.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := service.VerifyToken(context.Background(), "abc.def")
		assert.ErrorIs(t, err, &AuthError{Kind: AuthMalformed})
		assert.Equal(t, KindAuth, KindOf(err))
	})

	t.Run("deleted user with valid token", func(t *testing.T) {
		memory.DeleteUser("alice")

		_, err := service.VerifyToken(context.Background(), token.AccessToken)
		assert.ErrorIs(t, err, &AuthError{Kind: AuthUnknownSubject})
	})

	t.Run("expired token", func(t *testing.T) {
		clock.Advance(31 * time.Minute)

		_, err := service.VerifyToken(context.Background(), token.AccessToken)
		assert.ErrorIs(t, err, &AuthError{Kind: AuthExpired})
	})
}

func TestPasswordHashing(t *testing.T) {
	hasher := NewPasswordHasher(testArgon2())

	password := "testpassword"

	hashed, err := hasher.Hash(password)
	assert.NoError(t, err)
	assert.NotEmpty(t, hashed)

	assert.True(t, hasher.Verify(password, hashed))
	assert.False(t, hasher.Verify("wrongpassword", hashed))
	assert.False(t, hasher.Verify(password, "salt$hash"))

	other, err := hasher.Hash(password)
	require.NoError(t, err)
	assert.NotEqual(t, hashed, other, "salts must differ")

	// hashes stay verifiable after the configured cost changes
	stronger := testArgon2()
	stronger.Time = 2
	assert.True(t, NewPasswordHasher(stronger).Verify(password, hashed))
}
