package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/ruralpay/ledger/internal/audit"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/store"
)

// AuthService exchanges credentials for bearer tokens and resolves bearer
// tokens back to users.
type AuthService struct {
	users   CredentialStore
	tokens  *TokenService
	hasher  *PasswordHasher
	audit   *audit.Logger
	timeout time.Duration

	// compared against when the username is unknown so both failure paths
	// cost one argon2 derivation
	dummyHash string
}

func NewAuthService(users CredentialStore, tokens *TokenService, hasher *PasswordHasher, auditLogger *audit.Logger, timeout time.Duration) (*AuthService, error) {
	dummy, err := hasher.Hash("dummy-password")
	if err != nil {
		return nil, err
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		hasher:    hasher,
		audit:     auditLogger,
		timeout:   timeout,
		dummyHash: dummy,
	}, nil
}

// IssueToken verifies username and password and returns a signed token for
// the user.
func (s *AuthService) IssueToken(ctx context.Context, username, password string) (*Token, error) {
	user, err := s.findUser(ctx, username)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.hasher.Verify(password, s.dummyHash)
		log.Printf("[AUTH] Login failed - unknown username: %s", username)
		s.audit.LogLoginFailure(username)
		return nil, ErrAuthFailed
	case err != nil:
		log.Printf("[AUTH] Login failed - credential lookup error for %s: %v", username, err)
		return nil, infraError("find user", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		log.Printf("[AUTH] Login failed - invalid password for user %d", user.ID)
		s.audit.LogLoginFailure(username)
		return nil, ErrAuthFailed
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		// only a broken signing key can fail here
		return nil, infraError("sign token", err)
	}

	log.Printf("[AUTH] Login successful for user %d", user.ID)
	return token, nil
}

// VerifyToken returns the user the token was issued to. A valid token whose
// user no longer exists fails with AuthUnknownSubject.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	subject, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.findUser(ctx, subject)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &AuthError{Kind: AuthUnknownSubject}
	}
	if err != nil {
		return nil, infraError("find user", err)
	}
	return user, nil
}

func (s *AuthService) findUser(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.users.FindUserByUsername(ctx, username)
}
