package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ruralpay/ledger/internal/config"
)

const TokenTypeBearer = "bearer"

// Token is the credential returned at login.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenService issues and verifies HS256 bearer tokens. Tokens are stateless:
// any replica holding the key can verify them and there is no revocation.
type TokenService struct {
	key    []byte
	ttl    time.Duration
	issuer string
	clock  Clock
	parser *jwt.Parser
}

func NewTokenService(cfg config.JWTConfig, clock Clock) (*TokenService, error) {
	if cfg.SecretKey == "" {
		return nil, config.ErrMissingSigningKey
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(clock.Now),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return &TokenService{
		key:    []byte(cfg.SecretKey),
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		clock:  clock,
		parser: jwt.NewParser(opts...),
	}, nil
}

// Issue signs a token for subject that expires one TTL from now.
func (s *TokenService) Issue(subject string) (*Token, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return nil, err
	}

	return &Token{
		AccessToken: signed,
		TokenType:   TokenTypeBearer,
		ExpiresAt:   expiresAt.Truncate(time.Second),
	}, nil
}

// Verify checks the signature and expiry and returns the token's subject.
func (s *TokenService) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", &AuthError{Kind: AuthMissing}
	}

	var claims jwt.RegisteredClaims
	_, err := s.parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	if err != nil {
		return "", &AuthError{Kind: classifyJWTError(err), Err: err}
	}

	if claims.Subject == "" {
		return "", &AuthError{Kind: AuthMalformed, Err: errors.New("token has no subject")}
	}
	return claims.Subject, nil
}

func classifyJWTError(err error) AuthErrorKind {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return AuthInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return AuthExpired
	default:
		return AuthMalformed
	}
}
