package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/store"
)

// ErrUserExists is returned by ProvisionUser for a taken username.
var ErrUserExists = errors.New("username already exists")

// UserCreator persists a new user with an already hashed password.
type UserCreator interface {
	CreateUser(ctx context.Context, username, passwordHash string, createdAt time.Time) (*models.User, error)
}

// ProvisionUser hashes password and stores a new user. It backs the seed
// tool and the startup bootstrap user; there is no public registration.
func ProvisionUser(ctx context.Context, users UserCreator, hasher *PasswordHasher, clock Clock, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required")
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := users.CreateUser(ctx, username, hash, clock.Now())
	if errors.Is(err, store.ErrDuplicate) {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, infraError("create user", err)
	}

	log.Printf("[AUTH] User %d provisioned as %s", user.ID, user.Username)
	return user, nil
}
