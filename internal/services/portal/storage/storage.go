// Package storage defines persistence contracts for portal browser sessions.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"
)

// TokenKeyPrefix namespaces persisted bearer tokens.
const TokenKeyPrefix = "sms_token"

var (
	// ErrClosed is returned by stores used after Close.
	ErrClosed = errors.New("token store is closed")
	// ErrTokenExpired is returned by SaveToken when expiresAt has already
	// passed. Nothing is stored.
	ErrTokenExpired = errors.New("token is already expired")
)

// TokenKey returns the persistence key for one browser's token.
func TokenKey(browserID string) string {
	return TokenKeyPrefix + ":" + strings.TrimSpace(browserID)
}

// TokenStore persists at most one bearer token per key so a browser session
// survives portal restarts. Absence of a token means unauthenticated.
//
// A zero expiresAt means the token has no known expiry. Stores must not
// return tokens whose expiry has passed, and SaveToken rejects an expiresAt
// that is not in the future with ErrTokenExpired.
type TokenStore interface {
	LoadToken(ctx context.Context, key string) (token string, ok bool, err error)
	SaveToken(ctx context.Context, key string, token string, expiresAt time.Time) error
	DeleteToken(ctx context.Context, key string) error
	Close() error
}

// ValidateKey trims key and rejects blanks.
func ValidateKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("token key is required")
	}
	return key, nil
}

// ExpiredTokenPurger is implemented by stores that need periodic cleanup of
// expired tokens. Stores with native expiry, such as Redis, omit it.
type ExpiredTokenPurger interface {
	PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}
