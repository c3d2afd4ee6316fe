// Package auth provides JWT session tokens, the GitHub OAuth flow, and
// bcrypt password hashing for the snippet-sharing API.
//
// AUTHENTICATION FLOW OVERVIEW:
// Credentials path:
//  1. POST /auth/register creates the account (bcrypt-hashed password)
//  2. POST /auth/login verifies the password and issues a JWT in an
//     HttpOnly cookie
//
// GitHub path:
//  1. GET /auth/github/login → redirect to GitHub
//  2. GitHub calls back with a code; the server exchanges it for the
//     user's profile, finds-or-creates the account by email, and issues
//     the same JWT cookie
//
// On subsequent API calls, middleware reads the cookie, validates the JWT,
// and sets the userID in the request context. The server never stores
// session state — everything needed (subject, expiry) is inside the signed
// token.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// sessionLifetime is how long an issued session token stays valid.
// After expiry the user signs in again; there is no refresh token.
const sessionLifetime = 24 * time.Hour

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens. The same
// secret must be used for both operations.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. We use the standard "sub" (Subject) claim to
// store the internal user ID — nothing app-specific is added.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a new session token for the given userID.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, one key signs and
// verifies. Fine for a single-server deployment.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, sessionLifetime)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Used in tests to produce already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    "snippetshare",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string.
// Returns the userID (stored in the "sub" claim) if the token is valid.
//
// The library checks the signature, the expiry, and the issuer. Passing
// jwt.WithValidMethods pins the algorithm to HS256 — without it, an
// attacker could attempt an algorithm-confusion attack with a token whose
// header claims a different signing method.
func (s *TokenService) Validate(tokenStr string) (string, error) {
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
		jwt.WithIssuer("snippetshare"),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	userID := c.Subject
	if userID == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return userID, nil
}
