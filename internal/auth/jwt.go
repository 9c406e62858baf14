// Package auth implements the sign-in machinery: GitHub OAuth, JWT session
// tokens, and the middleware that puts the authenticated user ID into the
// request context.
//
// Flow:
//  1. User visits /auth/github/login and is redirected to GitHub.
//  2. GitHub calls back /auth/github/callback with a code.
//  3. The server exchanges the code for the GitHub profile and upserts the user.
//  4. The server issues a JWT and stores it in an HttpOnly cookie.
//  5. Middleware reads the cookie on later requests and sets the userID in
//     the request context.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "bite"

	// TokenLifetime is how long a session cookie stays valid. Expiry forces
	// a new GitHub round-trip; there are no refresh tokens.
	TokenLifetime = 7 * 24 * time.Hour
)

// TokenService signs and verifies session JWTs with an HMAC-SHA256 secret.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production
// (e.g. JWT_SECRET=$(openssl rand -hex 32)).
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims embeds jwt.RegisteredClaims; the internal user ID travels in "sub".
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for the given user ID.
func (s *TokenService) Generate(userID int64) (string, error) {
	return s.GenerateWithDuration(userID, TokenLifetime)
}

// GenerateWithDuration creates a token with a custom expiry. Used in tests.
func (s *TokenService) GenerateWithDuration(userID int64, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the user ID from the
// "sub" claim. WithValidMethods pins the algorithm to HS256 so a token signed
// with "none" or a confused method is rejected outright.
func (s *TokenService) Validate(tokenStr string) (int64, error) {
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
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, fmt.Errorf("auth: token expired")
		}
		return 0, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("auth: invalid token claims")
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("auth: token has an invalid subject")
	}

	return userID, nil
}
