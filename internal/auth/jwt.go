// Package auth issues and checks session tokens and hashes passwords.
//
// AUTHENTICATION FLOW:
//  1. POST /api/auth/register or /api/auth/login checks the credentials
//  2. The server issues a signed JWT and returns it in the body and in an
//     HttpOnly "token" cookie
//  3. Later requests carry it as "Authorization: Bearer <jwt>" or as the
//     cookie; RequireAuth validates it and stores the user ID in the context
//
// Tokens are HS256 JWTs whose "sub" claim is the internal user ID. The
// server needs no session table: the signature plus expiry is the session.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "culinary-compass"

// MinSecretLength is the shortest accepted signing secret.
const MinSecretLength = 32

// Token purposes. Session tokens carry no purpose claim.
const purposeReset = "password_reset"

var (
	// ErrTokenExpired is returned for a well-formed but expired token.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrWrongPurpose is returned when a reset token is presented as a
	// session token or the other way round.
	ErrWrongPurpose = errors.New("auth: token issued for another purpose")
)

// TokenService handles JWT creation and validation.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService signing with secret. Tokens live
// for ttl.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", MinSecretLength)
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token TTL must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL is the lifetime of tokens from Generate.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// claims is the JWT payload. "sub" holds the internal user ID.
type claims struct {
	jwt.RegisteredClaims
	Purpose string `json:"purpose,omitempty"`
	// Stamp is PasswordStamp of the hash a reset token replaces.
	Stamp string `json:"stamp,omitempty"`
}

// Generate signs a token for userID with the configured lifetime.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration signs a token with a custom lifetime. A negative
// duration yields an already-expired token, which the tests rely on.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	return s.sign(userID, d, "", "")
}

// GenerateReset signs a password reset token for userID that lives for d.
// stamp is PasswordStamp of the user's current hash, so the token stops
// working once the password changes.
func (s *TokenService) GenerateReset(userID, stamp string, d time.Duration) (string, error) {
	if stamp == "" {
		return "", errors.New("auth: reset token needs a password stamp")
	}
	return s.sign(userID, d, purposeReset, stamp)
}

func (s *TokenService) sign(userID string, d time.Duration, purpose, stamp string) (string, error) {
	now := s.now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
		Purpose: purpose,
		Stamp:   stamp,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a session JWT and returns its user ID.
// Reset tokens are rejected with ErrWrongPurpose.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	c, err := s.parse(tokenStr)
	if err != nil {
		return "", err
	}
	if c.Purpose != "" {
		return "", ErrWrongPurpose
	}
	return c.Subject, nil
}

// ValidateReset verifies a password reset token and returns its user ID and
// password stamp.
func (s *TokenService) ValidateReset(tokenStr string) (userID, stamp string, err error) {
	c, err := s.parse(tokenStr)
	if err != nil {
		return "", "", err
	}
	if c.Purpose != purposeReset || c.Stamp == "" {
		return "", "", ErrWrongPurpose
	}
	return c.Subject, c.Stamp, nil
}

// parse checks the signature, expiry and issuer. Pinning the method list to
// HS256 rejects "alg: none" and key-confusion tokens.
func (s *TokenService) parse(tokenStr string) (*claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, errors.New("auth: invalid token claims")
	}
	if c.Subject == "" {
		return nil, errors.New("auth: token has no subject")
	}
	return c, nil
}
