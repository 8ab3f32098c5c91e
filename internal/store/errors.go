package store

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a user or account row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConcurrentUpdate is returned when an account's version changed
	// between read and write.
	ErrConcurrentUpdate = errors.New("concurrent update detected")
	// ErrDuplicate is returned when a unique constraint rejects an insert.
	ErrDuplicate = errors.New("record already exists")
)

// Postgres error codes that mean "nothing was written, try again".
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqUniqueViolation      = "23505"
)

// IsRetryable reports whether err is a transient conflict that left no
// partial write behind.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrConcurrentUpdate) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqSerializationFailure, pqDeadlockDetected:
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
