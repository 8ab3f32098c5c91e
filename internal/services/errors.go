package services

import (
	"errors"
	"fmt"
)

// Business rejections. They are deterministic for a given state and input
// and are never retried.
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrForbidden         = errors.New("account belongs to another user")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be non-zero, below 10^18 in magnitude and have at most two decimal places")
)

// ErrAuthFailed is returned by IssueToken for an unknown username or a wrong
// password. Callers cannot tell the two cases apart.
var ErrAuthFailed = errors.New("incorrect username or password")

type AuthErrorKind string

const (
	AuthMissing          AuthErrorKind = "missing"
	AuthMalformed        AuthErrorKind = "malformed"
	AuthExpired          AuthErrorKind = "expired"
	AuthInvalidSignature AuthErrorKind = "invalid_signature"
	AuthUnknownSubject   AuthErrorKind = "unknown_subject"
)

// AuthError reports why a bearer credential was not accepted.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

// ErrUnauthenticated matches any *AuthError with errors.Is.
var ErrUnauthenticated = &AuthError{}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unauthenticated (%s): %v", e.Kind, e.Err)
	}
	if e.Kind == "" {
		return "unauthenticated"
	}
	return fmt.Sprintf("unauthenticated (%s)", e.Kind)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches another *AuthError of the same kind; a target without a kind
// matches every AuthError.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return t.Kind == "" || t.Kind == e.Kind
}

// InfrastructureError wraps a storage failure. Nothing was committed and the
// caller may retry.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() error { return e.Err }

func infraError(op string, err error) error {
	return &InfrastructureError{Op: op, Err: err}
}

type ErrorKind string

const (
	KindNone           ErrorKind = ""
	KindAuth           ErrorKind = "auth"
	KindBusiness       ErrorKind = "business"
	KindInfrastructure ErrorKind = "infrastructure"
)

// KindOf classifies err so transports can map it without losing detail.
// Unclassified errors are reported as infrastructure.
func KindOf(err error) ErrorKind {
	var infra *InfrastructureError
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrAuthFailed):
		return KindAuth
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrInvalidAmount):
		return KindBusiness
	case errors.As(err, &infra):
		return KindInfrastructure
	default:
		return KindInfrastructure
	}
}
